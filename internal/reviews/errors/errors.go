package errors

import "errors"

var (
	ErrNotFound = errors.New("review not found")

	ErrInvalidID = errors.New("invalid review ID format")

	ErrDuplicateReview = errors.New("user already reviewed this property")
)
