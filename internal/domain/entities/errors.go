package entities

import "errors"

// Sentinel errors shared by the services and mapped to HTTP status codes by
// the primary adapter.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidPath   = errors.New("invalid path")
)
