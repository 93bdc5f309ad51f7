// Package models defines the domain types for Atrium.
//
// Every entity pairs a server-assigned ID with an input struct holding the
// editable fields. The input is what forms submit and what the REST backend
// accepts on create and update.
package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Placeholder is rendered for empty optional values and dangling references.
const Placeholder = "—"

// DateLayout is the wire format of date-only fields.
const DateLayout = "2006-01-02"

// dateLike accepts empty strings, plain dates and RFC 3339 timestamps.
var dateLike = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := ParseDate(s); err != nil {
		return fmt.Errorf("must be a date in %s format", DateLayout)
	}
	return nil
})

// ParseDate parses a date-only or RFC 3339 value.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// FormatDate renders s as YYYY-MM-DD, or Placeholder when s is empty.
// Values that do not parse are returned unchanged.
func FormatDate(s string) string {
	if s == "" {
		return Placeholder
	}
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}
