// Package validate provides field validation helpers for stickerforge.
package validate

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Error represents a validation error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation: %s - %s", e.Field, e.Message)
}

// New creates a new validation error.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Newf creates a new validation error with formatted message.
func Newf(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// packNamePattern matches Telegram's short-name rules: starts with a
// letter, then letters, digits or underscores.
var packNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// PackName validates a pack short name. The transport appends the
// platform's "_by_<botname>" suffix, so the local part stays well under
// the 64-character platform cap.
func PackName(name string) error {
	if name == "" {
		return New("pack_name", "cannot be empty")
	}
	if len(name) > 48 {
		return Newf("pack_name", "exceeds maximum length of %d", 48)
	}
	if !packNamePattern.MatchString(name) {
		return New("pack_name", "must start with a letter and contain only letters, digits, and underscores")
	}
	return nil
}

// PackTitle validates a pack display title.
func PackTitle(title string) error {
	if title == "" {
		return New("pack_title", "cannot be empty")
	}
	if utf8.RuneCountInString(title) > 64 {
		return Newf("pack_title", "exceeds maximum length of %d", 64)
	}
	return nil
}

// Positive validates that a value is positive.
func Positive(field string, value int) error {
	if value <= 0 {
		return Newf(field, "must be positive, got %d", value)
	}
	return nil
}

// Required validates that a string is not empty.
func Required(field, value string) error {
	if value == "" {
		return Newf(field, "is required")
	}
	return nil
}
