package fetch

import (
	"errors"
	"fmt"
)

var ErrNoBaseURL = errors.New("no base URL provided")

// TransportError is returned for every failed request, whether the
// connection failed or the server responded with a non-2xx status.
type TransportError struct {
	Path       string
	StatusCode int // 0 if no response has been received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching '%s' failed with status %d: %s", e.Path, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("fetching '%s' failed: %s", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
