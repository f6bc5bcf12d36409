// Package errors provides custom error types for catalog operations.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")

// ErrInvalidPageRequest is returned when a page request is missing, has a non-positive size,
// or asks to sort by an unknown column.
var ErrInvalidPageRequest = errors.New("invalid page request")
