package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream marks failures raised by the blob or catalog store
	ErrUpstream = errors.New("upstream failure")
)
