package service

import "errors"

var (
	// ErrDuplicateEmail is returned when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized is returned for a missing, invalid or expired token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the role for an operation.
	ErrForbidden = errors.New("only riders can publish rides")

	// ErrRideNotFound is returned when the referenced ride does not exist.
	ErrRideNotFound = errors.New("ride not found")

	// ErrInsufficientSeats is returned when a ride has fewer free seats than requested.
	ErrInsufficientSeats = errors.New("not enough available seats")

	// ErrInvalidInput is returned for malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
)
