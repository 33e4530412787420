package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalog/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxPrice is the first value that no longer fits decimal(19,2).
var maxPrice = decimal.New(1, 17)

// NewValidator returns the validator shared by all handlers. Field errors are keyed by
// JSON name and "notblank" rejects whitespace-only strings. Prices are checked as
// decimals: "positive" wants a value above zero, "money" at most 17 integer digits
// and 2 decimal places.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && d.Sign() > 0
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && d.Equal(d.Truncate(2)) && d.Abs().LessThan(maxPrice)
	})

	return v
}

// validateStruct runs v against s and converts failures into a validation error
// carrying msg and one entry per offending field.
func validateStruct(v *validator.Validate, s interface{}, msg string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.Unexpected(err)
	}

	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fieldMessage(e)
	}
	return apperror.Invalid(msg, fields)
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "must not be null"
	case "notblank":
		return "must not be blank"
	case "gt":
		return "The field cannot be less than " + e.Param()
	case "positive":
		return "The field cannot be less than 0"
	case "money":
		return "must have at most 17 integer digits and 2 decimal places"
	case "email":
		return "must be a valid email address"
	case "min", "max":
		return fmt.Sprintf("must satisfy %s=%s", e.Tag(), e.Param())
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
}
