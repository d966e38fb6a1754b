package validation

import (
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Length bounds, in characters.
const (
	MaxEmailLength   = 255
	MaxNameLength    = 100
	MaxMessageLength = 5000
)

func emailRules() []ozzo.Rule {
	return []ozzo.Rule{
		ozzo.Required.Error("Email is required"),
		ozzo.RuneLength(0, MaxEmailLength).Error("Email must be at most 255 characters"),
		is.EmailFormat.Error("Invalid email address"),
	}
}

// WaitlistSchema is the body of POST /v1/waitlist.
type WaitlistSchema struct {
	Email string `json:"email"`
}

func (s *WaitlistSchema) Bind(fields map[string]any) error {
	var err error
	s.Email, err = stringField(fields, "email")
	return err
}

func (s *WaitlistSchema) Normalize() {
	s.Email = normalizeEmail(s.Email)
}

func (s *WaitlistSchema) Validate() error {
	return first(check(s.Email, emailRules()...))
}

// ContactSchema is the body of POST /v1/contact.
type ContactSchema struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (s *ContactSchema) Bind(fields map[string]any) error {
	var err error
	if s.Name, err = stringField(fields, "name"); err != nil {
		return err
	}
	if s.Email, err = stringField(fields, "email"); err != nil {
		return err
	}
	s.Message, err = stringField(fields, "message")
	return err
}

func (s *ContactSchema) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = normalizeEmail(s.Email)
	s.Message = strings.TrimSpace(s.Message)
}

func (s *ContactSchema) Validate() error {
	return first(
		check(s.Name,
			ozzo.Required.Error("Name is required"),
			ozzo.RuneLength(1, MaxNameLength).Error("Name must be between 1 and 100 characters"),
		),
		check(s.Email, emailRules()...),
		check(s.Message,
			ozzo.Required.Error("Message is required"),
			ozzo.RuneLength(1, MaxMessageLength).Error("Message must be between 1 and 5000 characters"),
		),
	)
}
