package services

import (
	"context"
	"strings"

	"github.com/shaan-hospital/apiserver/internal/validate"
	"github.com/shaan-hospital/apiserver/types"
)

// AppointmentRepository defines persistence operations for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, appt types.Appointment) (types.Appointment, error)
	List(ctx context.Context, patientID string) ([]types.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status types.AppointmentStatus, hasVisited *bool) (types.Appointment, error)
	Stats(ctx context.Context) (types.AppointmentStats, error)
}

// DoctorFinder resolves the doctor an appointment is booked with.
type DoctorFinder interface {
	FindDoctor(ctx context.Context, firstName, lastName, department string) (types.User, error)
}

// AppointmentInput is an appointment request from a signed-in patient.
type AppointmentInput struct {
	FirstName       string       `json:"firstName" validate:"required,min=3"`
	LastName        string       `json:"lastName" validate:"required,min=3"`
	Email           string       `json:"email" validate:"required,email"`
	Phone           string       `json:"phone" validate:"required,numeric,len=11"`
	Aadhar          string       `json:"aadhar" validate:"required,numeric,len=12"`
	DOB             string       `json:"dob" validate:"required"`
	Gender          types.Gender `json:"gender" validate:"required,enum"`
	AppointmentDate string       `json:"appointment_date" validate:"required"`
	Department      string       `json:"department" validate:"required"`
	DoctorFirstName string       `json:"doctor_firstName" validate:"required"`
	DoctorLastName  string       `json:"doctor_lastName" validate:"required"`
	HasVisited      bool         `json:"hasVisited"`
	Address         string       `json:"address" validate:"required"`
}

// StatusUpdate moves an appointment to a new status.
type StatusUpdate struct {
	Status     types.AppointmentStatus `json:"status" validate:"required,enum"`
	HasVisited *bool                   `json:"hasVisited"`
}

// AppointmentService encapsulates appointment use-cases.
type AppointmentService struct {
	repo    AppointmentRepository
	doctors DoctorFinder
}

func NewAppointmentService(repo AppointmentRepository, doctors DoctorFinder) *AppointmentService {
	return &AppointmentService{repo: repo, doctors: doctors}
}

// Book creates a pending appointment for patientID with the doctor named in
// the request.
func (s *AppointmentService) Book(ctx context.Context, patientID string, in AppointmentInput) (types.Appointment, error) {
	if err := validate.Struct(in); err != nil {
		return types.Appointment{}, err
	}
	dob, err := parseDate("dob", in.DOB)
	if err != nil {
		return types.Appointment{}, err
	}
	date, err := parseDate("appointment_date", in.AppointmentDate)
	if err != nil {
		return types.Appointment{}, err
	}

	doctor, err := s.doctors.FindDoctor(ctx, in.DoctorFirstName, in.DoctorLastName, in.Department)
	if err != nil {
		return types.Appointment{}, err
	}

	created, err := s.repo.Create(ctx, types.Appointment{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Email:           normalizeEmail(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Aadhar:          strings.TrimSpace(in.Aadhar),
		DOB:             dob,
		Gender:          in.Gender,
		AppointmentDate: date,
		Department:      strings.TrimSpace(in.Department),
		Doctor: types.DoctorName{
			FirstName: doctor.FirstName,
			LastName:  doctor.LastName,
		},
		HasVisited: in.HasVisited,
		Address:    strings.TrimSpace(in.Address),
		DoctorID:   doctor.ID,
		PatientID:  patientID,
		Status:     types.AppointmentPending,
	})
	return created, storeError(err, "Appointment not found!")
}

// List returns every appointment, newest first.
func (s *AppointmentService) List(ctx context.Context) ([]types.Appointment, error) {
	return s.repo.List(ctx, "")
}

// ListForPatient returns the patient's own appointments.
func (s *AppointmentService) ListForPatient(ctx context.Context, patientID string) ([]types.Appointment, error) {
	if patientID == "" {
		return []types.Appointment{}, nil
	}
	return s.repo.List(ctx, patientID)
}

func (s *AppointmentService) UpdateStatus(ctx context.Context, id string, in StatusUpdate) (types.Appointment, error) {
	if err := checkID(id); err != nil {
		return types.Appointment{}, err
	}
	if err := validate.Struct(in); err != nil {
		return types.Appointment{}, err
	}
	appt, err := s.repo.UpdateStatus(ctx, id, in.Status, in.HasVisited)
	return appt, storeError(err, "Appointment not found!")
}

func (s *AppointmentService) Stats(ctx context.Context) (types.AppointmentStats, error) {
	return s.repo.Stats(ctx)
}
