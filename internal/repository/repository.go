package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername indicates a unique username constraint violation.
	ErrDuplicateUsername = errors.New("username already exists")
)
