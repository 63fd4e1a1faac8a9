package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"store duplicate", &store.DuplicateKeyError{Field: "email"}, http.StatusBadRequest, "Duplicate email Entered"},
		{"wrapped duplicate", fmt.Errorf("create: %w", &store.DuplicateKeyError{Field: "name"}), http.StatusBadRequest, "Duplicate name Entered"},
		{"validation details", apperr.ValidationFields([]string{"a is required!", "b is required!"}), http.StatusBadRequest, "a is required! b is required!"},
		{"invalid id", apperr.InvalidID("_id", errors.New("bad")), http.StatusBadRequest, "Invalid _id"},
		{"token invalid", apperr.TokenInvalid(nil), http.StatusBadRequest, "Json Web Token is Invalid, Please Try Again!"},
		{"token expired", apperr.TokenExpired(nil), http.StatusBadRequest, "Json Web Token is Expired, Please Try Again!"},
		{"unauthenticated", apperr.Unauthenticated(""), http.StatusUnauthorized, "User is not authenticated!"},
		{"forbidden", apperr.Forbidden("Doctor not authorized for this resource!"), http.StatusForbidden, "Doctor not authorized for this resource!"},
		{"not found", apperr.NotFound("News article not found!"), http.StatusNotFound, "News article not found!"},
		{"media", apperr.UnsupportedMedia(""), http.StatusBadRequest, "File Format Not Supported!"},
		{"upstream", apperr.Upstream("Failed to upload image!", errors.New("boom")), http.StatusInternalServerError, "Failed to upload image!"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := translateError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=2&limit=25", nil)
	page, err := parsePagination(req, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 25, page.Limit)
	assert.Equal(t, 25, page.Offset())

	page, err = parsePagination(httptest.NewRequest(http.MethodGet, "/", nil), 6)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 6, page.Limit)

	_, err = parsePagination(httptest.NewRequest(http.MethodGet, "/?limit=abc", nil), 6)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRootAndHealthz(t *testing.T) {
	env := newTestEnv(t)
	res := env.json(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Server is up and running", res.body["message"])

	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
