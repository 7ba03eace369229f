// Package forms decodes and validates the HTML forms posted by the browser.
// Field names on the wire come from the `form` struct tag; rules from the
// `validate` tag.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

var (
	decoder  = form.NewDecoder()
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Errors maps a form field name to the message shown next to it.
type Errors map[string]string

// Get returns the message for field, or "".
func (e Errors) Get(field string) string { return e[field] }

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Any reports whether at least one field failed.
func (e Errors) Any() bool { return len(e) > 0 }

type normalizer interface {
	normalize()
}

// Bind decodes the posted form into dst, trims it and validates it. A non-nil
// error means the request body itself was unreadable; field problems are
// returned as Errors.
func Bind(r *http.Request, dst normalizer) (Errors, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	if err := decoder.Decode(dst, r.PostForm); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	dst.normalize()
	return Validate(dst), nil
}

// Validate runs the struct's validate rules. It returns an empty, non-nil
// Errors when everything passes.
func Validate(v any) Errors {
	errs := Errors{}
	err := validate.Struct(v)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("", err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "eqfield":
		return "Passwords must match."
	case "email":
		return "Invalid email address."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}
