// Package account identifies the accounts that create, join, sponsor, and get
// paid by challenges.
package account

import (
	"errors"
	"strings"
)

// ErrIDRequired indicates an empty account identifier.
var ErrIDRequired = errors.New("account id is required")

// ID is an opaque, host-assigned account identifier.
type ID string

// Parse trims and validates an account identifier.
func Parse(value string) (ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrIDRequired
	}
	return ID(trimmed), nil
}

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }
