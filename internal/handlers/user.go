package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/services"
	"github.com/shaan-hospital/apiserver/internal/session"
	"github.com/shaan-hospital/apiserver/types"
)

// UserHandler provides account, session and user management endpoints.
type UserHandler struct {
	users  *services.UserService
	issuer *session.Issuer
	log    *logger.Logger
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(users *services.UserService, issuer *session.Issuer, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, issuer: issuer, log: log}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, users *services.UserService, issuer *session.Issuer, guard *Guard, log *logger.Logger) {
	h := NewUserHandler(users, issuer, log)

	r.Post("/patient/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequirePatient)
		r.Get("/patient/me", h.Me)
		r.Put("/patient/me", h.UpdateMe)
		r.Put("/patient/password", h.ChangePassword)
		r.Get("/patient/logout", h.logout(session.Patient, "Patient Logged Out Successfully."))

		r.With(h.callerOnly).Put("/update/{id}", h.UpdateMe)
		r.With(h.callerOnly).Put("/change-password/{id}", h.ChangePassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAdmin)
		r.Post("/admin/addnew", h.AddAdmin)
		r.Get("/admin/me", h.Me)
		r.Get("/admin/logout", h.logout(session.Admin, "Admin Logged Out Successfully."))
		r.Post("/doctor/addnew", h.AddDoctor)
		r.Get("/doctors", h.listRole(types.RoleDoctor, "doctors"))
		r.Get("/patients", h.listRole(types.RolePatient, "patients"))
		r.Get("/users", h.ListUsers)
		r.Get("/stats", h.Stats)
		r.Put("/user/{id}", h.UpdateUser)
		r.Delete("/user/{id}", h.DeleteUser)
		r.Put("/doctor/{id}", h.UpdateDoctor)
	})
}

// callerOnly rejects requests whose {id} is not the authenticated user.
func (h *UserHandler) callerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := identityFromContext(r.Context())
		if urlID(r) != user.ID {
			writeFailure(w, r, h.log, apperr.Forbidden("You can only manage your own account!"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register creates a patient account and starts its session.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.AccountInput
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	h.startSession(w, r, user, http.StatusOK, "User Registered!")
}

// Login verifies credentials and starts a session of the matching kind.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	user, err := h.users.Login(r.Context(), in)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	h.startSession(w, r, user, http.StatusOK, "User Logged In Successfully!")
}

func (h *UserHandler) startSession(w http.ResponseWriter, r *http.Request, user types.User, status int, message string) {
	token, kind, err := h.issuer.Issue(user)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	http.SetCookie(w, h.issuer.Cookie(kind, token))
	writeSuccess(w, status, envelope{
		"message": message,
		"user":    user,
		"token":   token,
	})
}

func (h *UserHandler) logout(kind session.Kind, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, h.issuer.ClearCookie(kind))
		writeSuccess(w, http.StatusOK, envelope{"message": message})
	}
}

// Me returns the authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFromContext(r.Context())
	writeSuccess(w, http.StatusOK, envelope{"user": user})
}

// UpdateMe lets a patient edit their own profile.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	current, _ := identityFromContext(r.Context())
	var in services.UserUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	user, err := h.users.UpdateOwnProfile(r.Context(), current.ID, in)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Profile updated successfully!", "user": user})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	current, _ := identityFromContext(r.Context())
	var in services.PasswordChange
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	if err := h.users.ChangePassword(r.Context(), current.ID, in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Password updated successfully!"})
}

// AddAdmin provisions another administrator.
func (h *UserHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var in services.AccountInput
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	admin, err := h.users.CreateAdmin(r.Context(), in)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "New Admin Registered!", "admin": admin})
}

// AddDoctor provisions a doctor from a multipart form with a docAvatar file.
func (h *UserHandler) AddDoctor(w http.ResponseWriter, r *http.Request) {
	var in services.DoctorInput
	avatar, err := decodeBody(r, &in, formFieldDocAvatar, nil)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	doctor, err := h.users.CreateDoctor(r.Context(), in, avatar)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "New Doctor Registered!", "doctor": doctor})
}

func (h *UserHandler) listRole(role types.Role, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.users.List(r.Context(), &role)
		if err != nil {
			writeFailure(w, r, h.log, err)
			return
		}
		writeSuccess(w, http.StatusOK, envelope{key: users})
	}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), nil)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"users": users})
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Stats(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"stats": stats})
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in services.UserUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	user, err := h.users.Update(r.Context(), urlID(r), in)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "User updated successfully!", "user": user})
}

// DeleteUser hard-deletes an account.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.users.Delete(r.Context(), urlID(r)); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "User deleted successfully!"})
}

// UpdateDoctor accepts JSON or a multipart form with an optional docAvatar.
func (h *UserHandler) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	var in services.UserUpdate
	avatar, err := decodeBody(r, &in, formFieldDocAvatar, nil)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	doctor, err := h.users.UpdateDoctor(r.Context(), urlID(r), in, avatar)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Doctor updated successfully!", "doctor": doctor})
}
