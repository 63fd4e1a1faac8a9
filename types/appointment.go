package types

import "time"

// AppointmentStatus is the review state of an appointment.
type AppointmentStatus string

const (
	AppointmentPending  AppointmentStatus = "Pending"
	AppointmentAccepted AppointmentStatus = "Accepted"
	AppointmentRejected AppointmentStatus = "Rejected"
)

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentAccepted, AppointmentRejected:
		return true
	}
	return false
}

// DoctorName identifies the doctor an appointment was booked with.
type DoctorName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Appointment is a patient's booking with a doctor of a department.
// The patient's contact fields are captured at booking time.
type Appointment struct {
	// ID is the unique identifier of the appointment.
	ID string `json:"_id" db:"id"`

	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Aadhar    string    `json:"aadhar" db:"aadhar"`
	DOB       time.Time `json:"dob" db:"dob"`
	Gender    Gender    `json:"gender" db:"gender"`

	// AppointmentDate is the requested date and time of the visit.
	AppointmentDate time.Time `json:"appointment_date" db:"appointment_date"`

	// Department is the name of the department the visit is for.
	Department string `json:"department" db:"department"`

	// Doctor is the name of the doctor, as resolved at booking time.
	Doctor DoctorName `json:"doctor" db:"doctor"`

	// HasVisited is set once the patient has attended.
	HasVisited bool `json:"hasVisited" db:"has_visited"`

	// Address is the patient's postal address.
	Address string `json:"address" db:"address"`

	// DoctorID references the doctor's identity.
	DoctorID string `json:"doctorId" db:"doctor_id"`

	// PatientID references the patient's identity.
	PatientID string `json:"patientId" db:"patient_id"`

	// Status is changed only by administrators.
	Status AppointmentStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AppointmentStats summarises appointments for the admin dashboard.
type AppointmentStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Visited  int `json:"visited"`
}
