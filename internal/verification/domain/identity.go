package domain

import (
	"errors"
	"regexp"
)

// Identity is a read-only record resolved from the identity provider.
// Username carries the provider's exact casing, which may differ from the
// handle the caller supplied.
type Identity struct {
	UserID    int64
	Username  string
	AvatarURL string
}

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ErrInvalidHandle is returned for handles that fail the format rules before
// any lookup is attempted.
var ErrInvalidHandle = errors.New("handle must be 3-20 characters of letters, digits or underscore")

// ValidateHandle enforces the handle format accepted by the identity
// provider: 3 to 20 characters, alphanumeric or underscore.
func ValidateHandle(handle string) error {
	if !handlePattern.MatchString(handle) {
		return ErrInvalidHandle
	}
	return nil
}
