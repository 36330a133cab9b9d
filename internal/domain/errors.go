package domain

import "fmt"

// MissingBackendError is returned when a model is routed to a backend
// identifier that has no usable binding.
type MissingBackendError struct {
	Backend string
}

func (e *MissingBackendError) Error() string {
	return fmt.Sprintf("no backend: %s", e.Backend)
}

// APIError is returned when a backend answers with a non-2xx status or an
// error payload.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Message)
}
