// Package validate holds the field-level checks shared by every record schema.
package validate

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
)

// Error identifies the field that failed validation and why.
type Error struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Errorf builds an *Error for field.
func Errorf(field, format string, args ...any) error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// First returns the first non-nil error, so callers can list checks in field order.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// NotBlank rejects empty or whitespace-only strings.
func NotBlank(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Errorf(field, "must not be empty")
	}
	return nil
}

// Finite rejects NaN and ±Inf.
func Finite(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Errorf(field, "must be a finite number")
	}
	return nil
}

// Between checks lo <= value <= hi.
func Between(field string, value, lo, hi float64) error {
	if err := Finite(field, value); err != nil {
		return err
	}
	if value < lo || value > hi {
		return Errorf(field, "must be between %g and %g", lo, hi)
	}
	return nil
}

// Positive checks value > 0.
func Positive(field string, value float64) error {
	if err := Finite(field, value); err != nil {
		return err
	}
	if value <= 0 {
		return Errorf(field, "must be greater than 0")
	}
	return nil
}

// OneOf restricts value to a closed set.
func OneOf[E ~string](field string, value E, allowed ...E) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return Errorf(field, "must be one of %s, got %q", strings.Join(names, ", "), string(value))
}

// Email accepts a bare address such as "jane@example.com".
func Email(field, value string) error {
	if err := NotBlank(field, value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return Errorf(field, "must be a valid email address")
	}
	return nil
}
