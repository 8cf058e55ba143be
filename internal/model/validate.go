package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/mschachner/drop-in/internal/errs"
)

var rgbHex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return fieldName(f.Name) })
	_ = v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return rgbHex.MatchString(fl.Field().String())
	})
	return v
}

// fieldName maps Go field names to their wire spelling (CalendarID -> calendarId).
func fieldName(name string) string {
	if strings.HasSuffix(name, "ID") {
		name = name[:len(name)-2] + "Id"
	}
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Validate checks v against its struct tags. Failures wrap errs.ErrValidation.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fmt.Errorf("%w: %s", errs.ErrValidation, describe(ve[0]))
	}
	return fmt.Errorf("%w: %v", errs.ErrValidation, err)
}

// ValidateCalendarID checks a bare calendar id.
func ValidateCalendarID(id string) error {
	if err := validate.Var(id, "required,alphanum,max=20"); err != nil {
		return fmt.Errorf("%w: calendarId must be 1-20 letters or digits", errs.ErrValidation)
	}
	return nil
}

// ValidateParticipant checks a joiner name after trimming.
func ValidateParticipant(name string) error {
	if err := validate.Var(name, "required,max=50"); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && ve[0].Tag() == "max" {
			return fmt.Errorf("%w: name must be at most 50 characters", errs.ErrValidation)
		}
		return fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	return nil
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must not be empty"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "rgbhex":
		return e.Field() + " must be a #RRGGBB color"
	case "alphanum":
		return e.Field() + " must contain only letters and digits"
	case "unique":
		return e.Field() + " must not contain duplicates"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
