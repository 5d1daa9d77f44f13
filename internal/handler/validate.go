package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sqlbay/sqlbay/internal/apperr"
)

// validate is shared across handlers.  Field names in error details come
// from json tags so clients see the names they sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", strongPassword)
	return v
}

// strongPassword requires at least one lowercase letter, one uppercase
// letter and one special character.  Length bounds are separate tags.
func strongPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	var lower, upper, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(`!@#$%^&*()_+-=[]{};':"\|,.<>/?`, r):
			special = true
		}
	}
	return lower && upper && special
}

// bindAndValidate decodes the request body into dst and validates it,
// translating validator failures into a BadRequest with a field-level
// detail list.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.BadRequest(apperr.CodeValidation, "Malformed JSON body.")
	}
	if err := validate.Struct(dst); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			details := make([]apperr.FieldError, 0, len(ves))
			for _, ve := range ves {
				details = append(details, apperr.FieldError{
					Field:   ve.Field(),
					Message: messageFor(ve),
					Code:    ve.Tag(),
				})
			}
			return apperr.BadRequest(apperr.CodeValidation, "Validation error.").WithDetails(details...)
		}
		return apperr.BadRequest(apperr.CodeValidation, "Validation error.")
	}
	return nil
}

func messageFor(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Must be a valid email address."
	case "min":
		return "Must be at least " + ve.Param() + " characters."
	case "max":
		return "Must be at most " + ve.Param() + " characters."
	case "eqfield":
		return "Passwords must be the same."
	case "strongpassword":
		return "Password must contain a lowercase letter, an uppercase letter and a special character."
	}
	return "Invalid value."
}
