package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/services"
)

// AppointmentHandler provides HTTP handlers for appointments.
type AppointmentHandler struct {
	appointments *services.AppointmentService
	log          *logger.Logger
}

func NewAppointmentHandler(appointments *services.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, log: log}
}

// AppointmentRouter registers appointment routes on the given router.
func AppointmentRouter(r chi.Router, appointments *services.AppointmentService, guard *Guard, log *logger.Logger) {
	h := NewAppointmentHandler(appointments, log)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequirePatient)
		r.Post("/post", h.Book)
		r.Get("/mine", h.ListMine)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAdmin)
		r.Get("/getall", h.List)
		r.Put("/update/{id}", h.UpdateStatus)
		r.Get("/stats", h.Stats)
	})
}

// Book creates a pending appointment for the signed-in patient.
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	patient, _ := identityFromContext(r.Context())

	var in services.AppointmentInput
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	appt, err := h.appointments.Book(r.Context(), patient.ID, in)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Appointment Send!", "appointment": appt})
}

func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	patient, _ := identityFromContext(r.Context())
	appointments, err := h.appointments.ListForPatient(r.Context(), patient.ID)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"appointments": appointments})
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointments.List(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"appointments": appointments})
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in services.StatusUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	appt, err := h.appointments.UpdateStatus(r.Context(), urlID(r), in)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Appointment Status Updated!", "appointment": appt})
}

func (h *AppointmentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.appointments.Stats(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"stats": stats})
}
