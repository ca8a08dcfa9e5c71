package store

import "fmt"

// StateIOError is returned if the state can't be read or written.
type StateIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *StateIOError) Error() string {
	return fmt.Sprintf("%s state '%s': %s", e.Op, e.Path, e.Err)
}

func (e *StateIOError) Unwrap() error {
	return e.Err
}
