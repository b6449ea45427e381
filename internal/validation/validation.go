// Package validation checks request structs and reports failures as a list of field errors.
//
// Rules come from `validate` struct tags (go-playground/validator). The message for a failed
// field is read from its `msg` tag; the reported param is the field's JSON name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"postboard/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates req, which must be a struct or a pointer to one.
// Failed checks come back as *model.ValidationError.
func Struct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := &model.ValidationError{Errors: make([]model.FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Errors = append(out.Errors, model.FieldError{
			Msg:      message(t, fe),
			Param:    fe.Field(),
			Location: "body",
		})
	}
	return out
}

// IsEmail reports whether value is a syntactically valid email address.
func IsEmail(value string) bool {
	return validate.Var(value, "required,email") == nil
}

func message(t reflect.Type, fe validator.FieldError) string {
	if field, ok := t.FieldByName(fe.StructField()); ok {
		if msg := field.Tag.Get("msg"); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("Invalid value (%s)", fe.Tag())
}
