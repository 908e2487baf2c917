package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"backend-chirper/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s by its `validate` tags and returns a 400-class error describing every violation.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldMessage(e))
	}
	return apperr.Invalid(strings.Join(msgs, "; "))
}

func fieldMessage(e validator.FieldError) string {
	field := toSnake(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "handle":
		return fmt.Sprintf("%s may only contain letters, digits and underscores", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ID normalizes a path identifier. Malformed ids cannot match any row, so they
// are reported as not found rather than as bad input.
func ID(raw, what string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.NotFound(what + " not found")
	}
	return id.String(), nil
}
