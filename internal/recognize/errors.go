package recognize

import (
	"errors"
	"fmt"
)

// ErrNotFound: the input file does not exist or the service has no result.
var ErrNotFound = errors.New("not found")

// APIError is a recognizer service failure, kept verbatim for the caller.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("recognizer api: status %d", e.Status)
	}
	return fmt.Sprintf("recognizer api %d: %s", e.Status, e.Message)
}
