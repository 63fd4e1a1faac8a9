package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// DuplicateKeyError is returned when a write collides with a unique key.
type DuplicateKeyError struct {
	// Field is the API field name of the unique key, e.g. "email".
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// uniqueFields maps unique constraint names to the API field they protect.
var uniqueFields = map[string]string{
	"users_email_key":      "email",
	"departments_name_key": "name",
}

func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		field, ok := uniqueFields[pqErr.Constraint]
		if !ok {
			field = pqErr.Constraint
		}
		return &DuplicateKeyError{Field: field, Err: err}
	}
	return err
}
