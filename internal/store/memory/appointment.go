package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/shaan-hospital/apiserver/types"
)

// AppointmentRepository stores appointments in memory.
type AppointmentRepository struct {
	mu           sync.RWMutex
	appointments map[string]*entry[types.Appointment]
	seq          int64
}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{appointments: make(map[string]*entry[types.Appointment])}
}

func (r *AppointmentRepository) Create(_ context.Context, appt types.Appointment) (types.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	appt.ID = uuid.NewString()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	r.seq++
	r.appointments[appt.ID] = &entry[types.Appointment]{value: appt, seq: r.seq}
	return appt, nil
}

func (r *AppointmentRepository) List(_ context.Context, patientID string) ([]types.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.appointments, func(a types.Appointment) bool {
		return patientID == "" || a.PatientID == patientID
	}), nil
}

func (r *AppointmentRepository) UpdateStatus(_ context.Context, id string, status types.AppointmentStatus, hasVisited *bool) (types.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.appointments[id]
	if !ok {
		return types.Appointment{}, store.ErrNotFound
	}
	e.value.Status = status
	if hasVisited != nil {
		e.value.HasVisited = *hasVisited
	}
	e.value.UpdatedAt = time.Now().UTC()
	return e.value, nil
}

func (r *AppointmentRepository) Stats(_ context.Context) (types.AppointmentStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats types.AppointmentStats
	for _, e := range r.appointments {
		stats.Total++
		switch e.value.Status {
		case types.AppointmentPending:
			stats.Pending++
		case types.AppointmentAccepted:
			stats.Accepted++
		case types.AppointmentRejected:
			stats.Rejected++
		}
		if e.value.HasVisited {
			stats.Visited++
		}
	}
	return stats, nil
}
