package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/shaan-hospital/apiserver/types"
)

const maxJSONBody = 1 << 20

type contextKey string

const contextIdentityKey contextKey = "identity"

// envelope is a success payload; writeSuccess adds "success": true.
type envelope map[string]any

// ErrorResponse is the failure payload.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func withIdentity(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, contextIdentityKey, user)
}

// identityFromContext returns the user attached by a guard.
func identityFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextIdentityKey).(types.User)
	return user, ok
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeSuccess(w http.ResponseWriter, status int, payload envelope) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// writeFailure translates err into the failure envelope. It is the only place
// failure status codes are chosen.
func writeFailure(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status, message := translateError(err)
	entry := log.WithRequest(r).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	writeError(w, status, message)
}

func translateError(err error) (int, string) {
	var dup *store.DuplicateKeyError
	if errors.As(err, &dup) {
		return http.StatusBadRequest, fmt.Sprintf("Duplicate %s Entered", dup.Field)
	}

	appErr, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, "Internal Server Error"
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		if appErr.Message != "" {
			return http.StatusBadRequest, appErr.Message
		}
		return http.StatusBadRequest, strings.Join(appErr.Details, " ")
	case apperr.KindDuplicateKey:
		if appErr.Message != "" {
			return http.StatusBadRequest, appErr.Message
		}
		return http.StatusBadRequest, fmt.Sprintf("Duplicate %s Entered", appErr.Field)
	case apperr.KindInvalidIdentifier:
		return http.StatusBadRequest, "Invalid " + appErr.Field
	case apperr.KindTokenInvalid:
		return http.StatusBadRequest, "Json Web Token is Invalid, Please Try Again!"
	case apperr.KindTokenExpired:
		return http.StatusBadRequest, "Json Web Token is Expired, Please Try Again!"
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized, withDefault(appErr.Message, "User is not authenticated!")
	case apperr.KindForbidden:
		return http.StatusForbidden, withDefault(appErr.Message, "Not authorized for this resource!")
	case apperr.KindNotFound:
		return http.StatusNotFound, withDefault(appErr.Message, "Resource not found!")
	case apperr.KindUnsupportedMedia:
		return http.StatusBadRequest, withDefault(appErr.Message, "File Format Not Supported!")
	case apperr.KindUpstream:
		return http.StatusInternalServerError, withDefault(appErr.Message, "Internal Server Error")
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func withDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// decodeJSON decodes a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst); err != nil {
		return apperr.Validation("Invalid request body!")
	}
	return nil
}

// parsePagination reads page and limit, falling back to defaultLimit.
func parsePagination(r *http.Request, defaultLimit int) (types.Page, error) {
	page := types.Page{Page: 1, Limit: defaultLimit}

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			return types.Page{}, apperr.Validation("Invalid page")
		}
		page.Page = p
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 1 {
			return types.Page{}, apperr.Validation("Invalid limit")
		}
		page.Limit = l
	}
	if page.Page-1 > math.MaxInt/page.Limit {
		return types.Page{}, apperr.Validation("Invalid page")
	}
	return page, nil
}

func urlID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Root answers the bare service URL.
func Root(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, envelope{"message": "Server is up and running"})
}
