package util

import (
	"github.com/oklog/ulid/v2"
)

// NewULID generates a new lexicographically sortable identifier for services,
// requests and notification intents. ulid.Make is monotonic within a
// millisecond and safe for concurrent use.
func NewULID() string {
	return ulid.Make().String()
}

// IsULID reports whether s parses as a ULID. Path parameters are checked with
// it before touching the database.
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
