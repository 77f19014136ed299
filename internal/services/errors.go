package services

import "errors"

var (
	// ErrInvalidInput covers malformed numeric fields and mismatched
	// parallel line-item arrays.
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)
