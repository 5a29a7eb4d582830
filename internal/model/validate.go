package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/shramba/internal/apperr"
)

var validate = newValidator()

const msgFinite = "Must be a finite number"

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// gte passes +Inf, so numbers are checked for finiteness first.
	v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		return Finite(fl.Field().Float())
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks the item's fields. Failures are returned as an
// apperr validation error keyed by JSON field name.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return apperr.Validation(map[string]string{"name": "This field is required"})
	}
	err := validate.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validating item: %w", err)
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fieldKey(fe)] = fieldMessage(fe)
	}
	return apperr.Validation(fields)
}

// fieldKey strips the struct name from the namespace ("Item.tags[0]" -> "tags[0]").
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return fmt.Sprintf("Maximum length is %s", fe.Param())
	case "finite":
		return msgFinite
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("Failed on %s validation", fe.Tag())
	}
}
