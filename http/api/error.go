package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ezshield/logrelay/fetch"
	"github.com/ezshield/logrelay/relay/store"
)

// Error represents an error response of the API
type Error struct {
	Code    int      `json:"code" jsonschema:"required" format:"int"`
	Message string   `json:"message" jsonschema:""`
	Details []string `json:"details" jsonschema:""`
}

// Error returns the string representation of the error
func (e Error) Error() string {
	return fmt.Sprintf("code=%d, message=%s, details=%s", e.Code, e.Message, strings.Join(e.Details, " "))
}

// Err creates a new API error with the given HTTP status code. An empty message
// is replaced by the status text of the code. If args starts with a format
// string, the formatted args become the details, one per line.
func Err(code int, message string, args ...interface{}) Error {
	if len(message) == 0 {
		message = http.StatusText(code)
	}

	e := Error{
		Code:    code,
		Message: message,
		Details: []string{},
	}

	if len(args) >= 1 {
		if format, ok := args[0].(string); ok {
			e.Details = strings.Split(fmt.Sprintf(format, args[1:]...), "\n")
		}
	}

	return e
}

// ErrFrom creates a new API error for err. Besides the error message, the
// details name the log file and the status of a failed fetch and the state
// file of a failed state operation.
func ErrFrom(code int, err error) Error {
	e := Err(code, "", "%s", err.Error())

	var terr *fetch.TransportError
	if errors.As(err, &terr) {
		e.Details = append(e.Details, "file: "+terr.Path)

		if terr.StatusCode != 0 {
			e.Details = append(e.Details, fmt.Sprintf("status: %d", terr.StatusCode))
		}
	}

	var serr *store.StateIOError
	if errors.As(err, &serr) {
		e.Details = append(e.Details, "state: "+serr.Path)
	}

	return e
}
