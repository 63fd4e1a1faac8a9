package types

import "time"

const (
	DefaultWeekdayHours = "9:00 AM - 5:00 PM"
	DefaultWeekendHours = "9:00 AM - 1:00 PM"
)

// Department represents a clinical department shown on the public site.
// Departments are never removed; deleting one clears IsActive.
type Department struct {
	// ID is the unique identifier of the department.
	ID string `json:"_id" db:"id"`

	// Name is the unique display name of the department.
	Name string `json:"name" db:"name"`

	// Description is a short summary shown in listings.
	Description string `json:"description" db:"description"`

	// DetailedInfo is the free-text body shown on the department page.
	DetailedInfo string `json:"detailedInfo" db:"detailed_info"`

	// Services is the ordered list of services the department offers.
	Services []string `json:"services" db:"services"`

	// CommonDiseases lists the conditions the department treats.
	CommonDiseases []Disease `json:"commonDiseases" db:"common_diseases"`

	// HeadOfDepartment is the name of the department head.
	HeadOfDepartment string `json:"headOfDepartment" db:"head_of_department"`

	// ContactInfo is how patients reach the department.
	ContactInfo ContactInfo `json:"contactInfo" db:"contact_info"`

	// Facilities is the ordered list of facilities available.
	Facilities []string `json:"facilities" db:"facilities"`

	// WorkingHours holds the opening hours.
	WorkingHours WorkingHours `json:"workingHours" db:"working_hours"`

	// Image references the department picture in object storage.
	Image *Image `json:"image,omitempty" db:"image"`

	// IsActive is false once the department has been deleted.
	IsActive bool `json:"isActive" db:"is_active"`

	// CreatedAt is the timestamp when the department was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Disease is a condition commonly treated by a department.
type Disease struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Symptoms    []string `json:"symptoms"`
	Treatments  []string `json:"treatments"`
}

// ContactInfo is a department's contact block.
type ContactInfo struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

// WorkingHours is a department's opening hours.
type WorkingHours struct {
	Weekdays string `json:"weekdays"`
	Weekends string `json:"weekends"`
}

// WithDefaults fills unset fields with the standard opening hours.
func (w WorkingHours) WithDefaults() WorkingHours {
	if w.Weekdays == "" {
		w.Weekdays = DefaultWeekdayHours
	}
	if w.Weekends == "" {
		w.Weekends = DefaultWeekendHours
	}
	return w
}

// DepartmentDiseaseCount is a department ranked by how many diseases it lists.
type DepartmentDiseaseCount struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	DiseaseCount int    `json:"diseaseCount"`
}

// DepartmentStats summarises departments for the admin dashboard.
type DepartmentStats struct {
	TotalDepartments        int                      `json:"totalDepartments"`
	InactiveDepartments     int                      `json:"inactiveDepartments"`
	DepartmentsWithDiseases []DepartmentDiseaseCount `json:"departmentsWithDiseases"`
}
