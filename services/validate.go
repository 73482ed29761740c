package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var hexColor6 = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validator wraps go-playground validator with the site's custom rules.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so the admin UI can map errors onto form fields.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return hexColor6.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates i and converts failures into a *ValidationError.
func (v *Validator) Struct(i interface{}) *ValidationError {
	verr := &ValidationError{Message: "Validation failed"}

	err := v.validate.Struct(i)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.Int {
			return "must be at most " + fe.Param()
		}
		return "must be at most " + fe.Param() + " characters"
	case "min":
		if fe.Kind() == reflect.Int {
			return "must be at least " + fe.Param()
		}
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	case "hexcolor6":
		return "must be a 6-digit hex colour such as #1a2b3c"
	default:
		return "is invalid"
	}
}
