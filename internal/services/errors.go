package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/store"
)

// checkID rejects identifiers that cannot address a record.
func checkID(id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return apperr.InvalidID("_id", err)
	}
	return nil
}

// storeError maps repository failures onto API errors. notFound is the
// message used when the record does not exist.
func storeError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	var dup *store.DuplicateKeyError
	if errors.As(err, &dup) {
		return apperr.Duplicate(dup.Field, "")
	}
	return err
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validation(field + " must be a valid date!")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
