package picks

import "errors"

var (
	ErrPickNotFound      = errors.New("pick not found")
	ErrInvalidConfidence = errors.New("confidence must be between 1 and 5")
	ErrEmptyEvent        = errors.New("pick event is required")
	ErrEmptyLine         = errors.New("pick line is required")
)
