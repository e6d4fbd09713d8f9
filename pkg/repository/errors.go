package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidID is returned when an invalid ID is provided
	ErrInvalidID = errors.New("invalid entity ID")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrQueryFailed is returned when a query execution fails
	ErrQueryFailed = errors.New("query execution failed")

	// ErrNoRowsAffected is returned when an update/delete affects no rows
	ErrNoRowsAffected = errors.New("no rows affected")
)

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
