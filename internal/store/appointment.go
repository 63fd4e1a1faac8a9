package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/types"
)

const appointmentColumns = `id, first_name, last_name, email, phone, aadhar, dob, gender,
	appointment_date, department, doctor, has_visited, address, doctor_id, patient_id, status,
	created_at, updated_at`

// AppointmentRepository handles persistence for appointments.
type AppointmentRepository struct {
	db *sql.DB
}

func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func scanAppointment(row rowScanner) (types.Appointment, error) {
	var appt types.Appointment
	var doctorJSON []byte
	err := row.Scan(
		&appt.ID,
		&appt.FirstName,
		&appt.LastName,
		&appt.Email,
		&appt.Phone,
		&appt.Aadhar,
		&appt.DOB,
		&appt.Gender,
		&appt.AppointmentDate,
		&appt.Department,
		&doctorJSON,
		&appt.HasVisited,
		&appt.Address,
		&appt.DoctorID,
		&appt.PatientID,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return types.Appointment{}, err
	}
	_ = json.Unmarshal(doctorJSON, &appt.Doctor)
	return appt, nil
}

func (r *AppointmentRepository) Create(ctx context.Context, appt types.Appointment) (types.Appointment, error) {
	now := time.Now().UTC()
	appt.ID = uuid.NewString()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	doctorJSON, err := json.Marshal(appt.Doctor)
	if err != nil {
		return types.Appointment{}, err
	}

	const query = `
		INSERT INTO appointments (id, first_name, last_name, email, phone, aadhar, dob, gender,
			appointment_date, department, doctor, has_visited, address, doctor_id, patient_id, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		appt.ID,
		appt.FirstName,
		appt.LastName,
		appt.Email,
		appt.Phone,
		appt.Aadhar,
		appt.DOB,
		appt.Gender,
		appt.AppointmentDate,
		appt.Department,
		doctorJSON,
		appt.HasVisited,
		appt.Address,
		appt.DoctorID,
		appt.PatientID,
		appt.Status,
		appt.CreatedAt,
		appt.UpdatedAt,
	); err != nil {
		return types.Appointment{}, translateError(err)
	}
	return appt, nil
}

// List returns appointments newest first. An empty patientID lists every
// appointment.
func (r *AppointmentRepository) List(ctx context.Context, patientID string) ([]types.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY created_at DESC, id`
	var args []any
	if patientID != "" {
		query = `SELECT ` + appointmentColumns + ` FROM appointments WHERE patient_id = $1 ORDER BY created_at DESC, id`
		args = append(args, patientID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]types.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateStatus sets the status and, when hasVisited is non-nil, the visit flag.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status types.AppointmentStatus, hasVisited *bool) (types.Appointment, error) {
	const query = `
		UPDATE appointments
		SET status = $1,
			has_visited = COALESCE($2, has_visited),
			updated_at = $3
		WHERE id = $4
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(r.db.QueryRowContext(ctx, query, status, hasVisited, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Appointment{}, ErrNotFound
		}
		return types.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) Stats(ctx context.Context) (types.AppointmentStats, error) {
	const query = `
		SELECT COUNT(1),
			COUNT(1) FILTER (WHERE status = 'Pending'),
			COUNT(1) FILTER (WHERE status = 'Accepted'),
			COUNT(1) FILTER (WHERE status = 'Rejected'),
			COUNT(1) FILTER (WHERE has_visited)
		FROM appointments`
	var stats types.AppointmentStats
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Accepted,
		&stats.Rejected,
		&stats.Visited,
	); err != nil {
		return types.AppointmentStats{}, err
	}
	return stats, nil
}
