package types

import "time"

// Role is the authorization level of an identity.
type Role string

const (
	RolePatient Role = "Patient"
	RoleDoctor  Role = "Doctor"
	RoleAdmin   Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Gender is the gender recorded on an identity.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User represents an account in the system.
// Patients, doctors and administrators share the same record and are
// distinguished by Role.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"_id" db:"id"`

	// FirstName is the user's given name.
	FirstName string `json:"firstName" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"lastName" db:"last_name"`

	// Email is the user's email address. It is unique across all roles.
	Email string `json:"email" db:"email"`

	// Phone is the user's contact number (11 digits).
	Phone string `json:"phone" db:"phone"`

	// Aadhar is the user's national identity number (12 digits).
	Aadhar string `json:"aadhar" db:"aadhar"`

	// DOB is the user's date of birth.
	DOB time.Time `json:"dob" db:"dob"`

	// Gender is the user's recorded gender.
	Gender Gender `json:"gender" db:"gender"`

	// Role indicates the user's authorization level.
	Role Role `json:"role" db:"role"`

	// DoctorDepartment is the department a doctor belongs to.
	// Empty for patients and administrators.
	DoctorDepartment string `json:"doctorDepartment,omitempty" db:"doctor_department"`

	// DocAvatar references the doctor's avatar in object storage.
	DocAvatar *Image `json:"docAvatar,omitempty" db:"doc_avatar"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// LastLogin is the timestamp of the most recent successful login.
	LastLogin *time.Time `json:"lastLogin,omitempty" db:"last_login"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserStats summarises identities for the admin dashboard.
type UserStats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalPatients  int `json:"totalPatients"`
	TotalDoctors   int `json:"totalDoctors"`
	TotalAdmins    int `json:"totalAdmins"`
	RecentPatients int `json:"recentPatients"`
	RecentLogins   int `json:"recentLogins"`
}
