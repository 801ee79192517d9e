// Package uuid generates time-ordered identifiers for database rows.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. UUIDv7 embeds a millisecond timestamp in the
// high bits, so rows created later sort later; that keeps index locality when
// the identifiers are used as primary keys.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// rather than return an empty key.
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid reports whether s parses as a UUID of any version.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
