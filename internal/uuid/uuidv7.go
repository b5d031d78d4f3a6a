// Package uuid generates the time-ordered identifiers used for event and
// request ids.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. Ids sort by creation time, which keeps the
// events queue and request logs easy to correlate. If the random source fails
// a v4 id is returned instead.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
