package core

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError collects per-field input failures for the 422 response
// envelope. It is a url.Values alias so multiple messages per field
// accumulate without extra bookkeeping.
type ValidationError url.Values

// NewValidationError creates an empty validation error.
func NewValidationError() ValidationError {
	return make(ValidationError)
}

// Add appends an error message for a field.
func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

// Get returns the first error message for a field.
func (e ValidationError) Get(field string) string {
	return url.Values(e).Get(field)
}

// Error implements the error interface, summarizing the first message per
// field.
func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e))
	for field, messages := range e {
		if len(messages) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, messages[0]))
		}
	}

	return "validation error: " + strings.Join(parts, ", ")
}
