package ids

import (
	"crypto/rand"
	"errors"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrInvalidID = errors.New("invalid identifier")

// idRegex bounds caller-supplied identifiers to URL path safe characters.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// NewULID generates a new ULID string.
func NewULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ValidateID accepts ULIDs and short slug-like identifiers supplied by callers.
func ValidateID(value string) error {
	if !idRegex.MatchString(value) {
		return ErrInvalidID
	}
	return nil
}
