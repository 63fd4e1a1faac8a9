package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/services"
)

// DepartmentHandler provides HTTP handlers for departments.
type DepartmentHandler struct {
	departments *services.DepartmentService
	log         *logger.Logger
}

// NewDepartmentHandler constructs a DepartmentHandler.
func NewDepartmentHandler(departments *services.DepartmentService, log *logger.Logger) *DepartmentHandler {
	return &DepartmentHandler{departments: departments, log: log}
}

// DepartmentRouter registers department routes on the given router.
func DepartmentRouter(r chi.Router, departments *services.DepartmentService, guard *Guard, log *logger.Logger) {
	h := NewDepartmentHandler(departments, log)

	r.Get("/all", h.List)
	r.Get("/name/{name}", h.GetByName)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAdmin)
		r.Post("/create", h.Create)
		r.Put("/update/{id}", h.Update)
		r.Delete("/delete/{id}", h.Delete)
		r.Get("/admin/all", h.ListAll)
		r.Get("/admin/stats", h.Stats)
	})

	r.With(guard.OptionalAdmin).Get("/{id}", h.Get)
}

// prepareDepartmentForm converts multipart text fields into their JSON shapes.
func prepareDepartmentForm(fields map[string]any) {
	listField(fields, "services")
	listField(fields, "facilities")
	jsonField(fields, "commonDiseases")
	jsonField(fields, "contactInfo")
	jsonField(fields, "workingHours")
	boolField(fields, "isActive")
}

func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departments.List(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"departments": departments})
}

func (h *DepartmentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departments.ListAll(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"departments": departments})
}

func (h *DepartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, admin := identityFromContext(r.Context())
	dept, err := h.departments.Get(r.Context(), urlID(r), admin)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"department": dept})
}

func (h *DepartmentHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	dept, err := h.departments.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"department": dept})
}

func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.DepartmentInput
	image, err := decodeBody(r, &in, formFieldImage, prepareDepartmentForm)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	dept, err := h.departments.Create(r.Context(), in, image)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusCreated, envelope{"message": "Department created successfully!", "department": dept})
}

func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.DepartmentInput
	image, err := decodeBody(r, &in, formFieldImage, prepareDepartmentForm)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	dept, err := h.departments.Update(r.Context(), urlID(r), in, image)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Department updated successfully!", "department": dept})
}

// Delete soft-deletes a department.
func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.departments.Delete(r.Context(), urlID(r)); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Department deleted successfully!"})
}

func (h *DepartmentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.departments.Stats(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"stats": stats})
}
