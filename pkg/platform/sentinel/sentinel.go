// Package sentinel holds the storage facts that account and link stores
// report. Services translate them into coded domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means no row matched the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write, such as a
	// taken username or a universal id already linked elsewhere.
	ErrConflict = errors.New("conflict")
)
