package util

import "github.com/google/uuid"

// NewRunID returns a fresh identifier for one batch run.
func NewRunID() string {
	return "run_" + uuid.NewString()
}

// NewToken returns an opaque random token.
func NewToken() string {
	return uuid.NewString()
}
