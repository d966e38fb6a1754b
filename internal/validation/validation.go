// Package validation checks request bodies against per-endpoint schemas and
// normalizes them before they reach a controller.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/landing/backend/internal/apperror"
)

// Schema is one endpoint's input contract. Bind copies raw body fields into
// the schema, Normalize trims and lowercases, Validate reports the first
// failing rule.
type Schema interface {
	Bind(fields map[string]any) error
	Normalize()
	Validate() error
}

// Schema names used by the router.
const (
	Waitlist = "waitlist"
	Contact  = "contact"
)

var registry = map[string]func() Schema{
	Waitlist: func() Schema { return &WaitlistSchema{} },
	Contact:  func() Schema { return &ContactSchema{} },
}

// New returns a fresh schema for name.
func New(name string) (Schema, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return ctor(), nil
}

// Parse binds fields into the named schema, normalizes and validates it.
// Failures are apperror validation errors carrying the first failing rule's
// message.
func Parse(name string, fields map[string]any) (Schema, error) {
	s, err := New(name)
	if err != nil {
		return nil, err
	}
	if err := s.Bind(fields); err != nil {
		return nil, err
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// field is one value checked in declaration order.
type field struct {
	value any
	rules []ozzo.Rule
}

func check(value any, rules ...ozzo.Rule) field {
	return field{value: value, rules: rules}
}

// first runs the fields in order and converts the first rule failure into a
// validation error. ozzo stops at the first failing rule per value.
func first(fields ...field) error {
	for _, f := range fields {
		err := ozzo.Validate(f.value, f.rules...)
		if err == nil {
			continue
		}
		var ve ozzo.Error
		if errors.As(err, &ve) {
			return apperror.Validation(ve.Error())
		}
		return fmt.Errorf("run validation rule: %w", err)
	}
	return nil
}

// stringField reads key from fields. A missing or null key yields "".
// Values must be valid UTF-8 without NUL bytes, which the store rejects.
func stringField(fields map[string]any, key string) (string, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", apperror.Validation(fmt.Sprintf("%s must be a string", key))
	}
	if !utf8.ValidString(s) || strings.IndexByte(s, 0) >= 0 {
		return "", apperror.Validation(fmt.Sprintf("%s contains invalid characters", key))
	}
	return s, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
