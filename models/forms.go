package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gmucodingclub/clubbot/validation"
	"github.com/google/uuid"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidCategory = errors.New("unknown event category")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
)

// MembershipApplication is the join form. Only name, email and student ID are required.
type MembershipApplication struct {
	FullName   string `validate:"required"`
	Email      string `validate:"required,email"`
	StudentID  string `validate:"required"`
	Major      string
	Year       string `validate:"omitempty,oneof=freshman sophomore junior senior graduate"`
	Experience string `validate:"omitempty,oneof=beginner intermediate advanced"`
	Interests  string
	Newsletter bool
}

// ParseMembershipApplication reads "name | email | student id | major | year | experience | interests | newsletter".
// Trailing fields may be omitted.
func ParseMembershipApplication(input string) MembershipApplication {
	f := splitFields(input, 8)
	app := MembershipApplication{
		FullName:   f[0],
		Email:      f[1],
		StudentID:  f[2],
		Major:      f[3],
		Year:       strings.ToLower(f[4]),
		Experience: strings.ToLower(f[5]),
		Interests:  f[6],
	}
	switch strings.ToLower(f[7]) {
	case "yes", "y", "true", "1":
		app.Newsletter = true
	}
	return app
}

// Validate checks required fields, the email format and the year and experience choices
func (a MembershipApplication) Validate() error {
	return formError(validation.Struct(a))
}

// CertificateRequest asks for a participation certificate
type CertificateRequest struct {
	StudentID string `validate:"required"`
	EventCode string `validate:"required"`
}

// Validate requires both fields
func (r CertificateRequest) Validate() error {
	return formError(validation.Struct(r))
}

// NewReference returns an acknowledgement reference for a submitted form.
// Nothing is stored under it.
func NewReference() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// ParseEvent reads "title | date | time | venue | category | description"
func ParseEvent(input string) (Event, error) {
	f := splitFields(input, 6)
	e := Event{
		Title:       f[0],
		Date:        f[1],
		Time:        f[2],
		Venue:       f[3],
		Category:    f[4],
		Description: f[5],
	}
	e.Category, _ = CanonicalEventCategory(e.Category)
	return e, e.Validate()
}

// Validate checks an event submitted through the add event form. The description is optional.
func (e Event) Validate() error {
	return formError(validation.Struct(e))
}

// formError maps failed field checks onto the form sentinels. A missing field wins over
// any other failure so the user fixes the form top to bottom.
func formError(err error) error {
	if err == nil {
		return nil
	}
	fieldErrs, ok := validation.FieldErrors(err)
	if !ok {
		return err
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s", ErrMissingFields, fe.Field())
		}
	}

	fe := fieldErrs[0]
	switch {
	case fe.Tag() == "email":
		return fmt.Errorf("%w: %v", ErrInvalidEmail, fe.Value())
	case fe.Tag() == "datetime":
		return fmt.Errorf("%w: %v", ErrInvalidDate, fe.Value())
	case fe.Tag() == "oneof" && fe.Field() == "Category":
		return fmt.Errorf("%w: %v", ErrInvalidCategory, fe.Value())
	case fe.Tag() == "oneof":
		return fmt.Errorf("unknown %s %q, expected one of %s",
			strings.ToLower(fe.Field()), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Errorf("invalid %s: %s", strings.ToLower(fe.Field()), validation.Describe(err))
	}
}

func splitFields(input string, n int) []string {
	out := make([]string, n)
	for i, part := range strings.SplitN(input, "|", n) {
		out[i] = strings.TrimSpace(part)
	}
	return out
}
