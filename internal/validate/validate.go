// Package validate checks request payloads against the constraints declared
// in their struct tags and reports failures as apperr validation errors.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shaan-hospital/apiserver/internal/apperr"
)

// Enum is implemented by closed string enums such as types.Role.
type Enum interface {
	Valid() bool
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
			e, ok := fl.Field().Interface().(Enum)
			return ok && e.Valid()
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns an *apperr.Error carrying one message per
// failed field, or nil.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, message(fe))
	}
	return apperr.ValidationFields(details)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", field)
	case "email":
		return "Provide a valid email!"
	case "numeric":
		return fmt.Sprintf("%s must contain only digits!", field)
	case "len":
		return fmt.Sprintf("%s must contain exactly %s characters!", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must contain at least %s characters!", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters!", field, fe.Param())
	case "enum", "oneof":
		return fmt.Sprintf("%s has an unsupported value %q!", field, fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s is invalid!", field)
	}
}
