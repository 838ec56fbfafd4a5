package domain

import (
	"errors"
	"fmt"
)

// APIError is a rejection returned by the remote OceanEye API. It is distinct
// from transport failures: a rejection is final, a transport failure may fall
// back to local handling.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("remote api: status %d: %s", e.Status, e.Message)
}

// IsAPIError reports whether err wraps a remote rejection.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
