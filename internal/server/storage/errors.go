package storage

import "errors"

// Common storage errors
var (
	// ErrCorruptSnapshot indicates that a persisted record row cannot be
	// parsed back into its configured type
	ErrCorruptSnapshot = errors.New("corrupt persisted snapshot")
)
