package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the peer rejects the bearer
	// credential. Callers must not retry until credentials are refreshed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSyncInFlight is returned when a sync cycle is requested while one
	// is already running on this device.
	ErrSyncInFlight = errors.New("sync already in flight")

	// ErrUnknownTable is returned for a tombstone or row naming a table
	// outside the synchronized set.
	ErrUnknownTable = errors.New("unknown table")
)

// MalformedRowError marks a row that cannot be applied: missing id or an
// unparseable timestamp. One bad row is skipped and logged, never allowed to
// abort the rest of its batch.
type MalformedRowError struct {
	Table  string
	ID     string
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row in %s (id=%q): %s", e.Table, e.ID, e.Reason)
}
