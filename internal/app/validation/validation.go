// Package validation checks console inputs before anything is sent to the
// PMS. It never panics: every violated rule becomes a field-scoped message.
package validation

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"pousada/internal/domain/accommodation"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/shared/daterange"
	"pousada/internal/domain/shared/money"
)

// FieldErrors maps a field name, as the client sends it, to a message.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation: invalid input"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Has reports whether field carries an error.
func (e *FieldErrors) Has(field string) bool {
	if e == nil {
		return false
	}
	_, ok := e.Fields[field]
	return ok
}

// AsFieldErrors unwraps err into field errors.
func AsFieldErrors(err error) (*FieldErrors, bool) {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Single builds a one-field error.
func Single(field, message string) *FieldErrors {
	return &FieldErrors{Fields: map[string]string{field: message}}
}

var messages = map[string]string{
	"required":       "is required",
	"ymd":            "must be a date in YYYY-MM-DD format",
	"after_checkin":  "must be after check-in",
	"selection":      "must be a valid accommodation selection",
	"payment_method": "must be one of pix, cash, card, booking, airbnb",
	"entry_type":     "must be one of room_charge, product, adjustment",
	"amount":         "must be a positive amount",
	"min":            "is too small",
	"max":            "is too long",
}

// Validator wraps a configured validator/v10 instance.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "ymd", func(fl validator.FieldLevel) bool {
		_, ok := daterange.ParseDate(fl.Field().String())
		return ok
	})
	mustRegister(v, "selection", func(fl validator.FieldLevel) bool {
		_, ok := accommodation.ParseSelection(fl.Field().String())
		return ok
	})
	mustRegister(v, "payment_method", func(fl validator.FieldLevel) bool {
		_, err := folio.ParsePaymentMethod(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "entry_type", func(fl validator.FieldLevel) bool {
		_, err := folio.ParseEntryType(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "amount", func(fl validator.FieldLevel) bool {
		d, err := money.Parse(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	v.RegisterStructValidation(draftRules, Draft{})
	v.RegisterStructValidation(extensionRules, Extension{})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Struct validates any tagged struct and converts failures to FieldErrors.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &FieldErrors{Fields: map[string]string{"_": err.Error()}}
	}
	out := &FieldErrors{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out.Fields[field]; seen {
			continue
		}
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		out.Fields[field] = msg
	}
	return out
}

// Validatable is implemented by commands and queries that carry input.
type Validatable interface {
	Validate(v *Validator) error
}

// Validate lets the command pipeline run every Validatable message through v.
func (v *Validator) Validate(_ context.Context, message any) error {
	m, ok := message.(Validatable)
	if !ok {
		return nil
	}
	return m.Validate(v)
}
