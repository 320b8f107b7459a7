package demo

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgRequired     = "Name and email are required"
	MsgInvalidEmail = "Invalid email format"
)

// emailChar excludes every Unicode space separator plus \v, NEL and BOM, not
// just the ASCII whitespace RE2's \s covers.
const emailChar = `[^\s\v\p{Z}\x{0085}\x{FEFF}@]`

var emailPattern = regexp.MustCompile(`^` + emailChar + `+@` + emailChar + `+\.` + emailChar + `+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return sf.Name
		}
		return name
	})
	_ = v.RegisterValidation("basicemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidationError is client-supplied data that cannot be accepted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Normalize trims surrounding whitespace and drops blank optional fields.
func (r BookingRequest) Normalize() BookingRequest {
	out := BookingRequest{
		Name:  strings.TrimSpace(r.Name),
		Email: strings.TrimSpace(r.Email),
	}
	out.Company = trimOptional(r.Company)
	out.Message = trimOptional(r.Message)
	return out
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// Validate checks a normalized request. Missing fields are reported before
// format problems so the client sees one message.
func (r BookingRequest) Validate() error {
	if r.Name == "" || r.Email == "" {
		return &ValidationError{Message: MsgRequired}
	}
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate booking: %w", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &ValidationError{Message: MsgRequired}
	case "basicemail":
		return &ValidationError{Message: MsgInvalidEmail}
	case "max":
		return &ValidationError{Message: fe.Field() + " is too long"}
	default:
		return &ValidationError{Message: fe.Field() + " is invalid"}
	}
}
