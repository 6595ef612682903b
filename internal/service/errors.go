package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to sign up with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrValidation wraps rejected input on create/update operations.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when the requester is not the resource owner.
	ErrForbidden = errors.New("forbidden")
)
