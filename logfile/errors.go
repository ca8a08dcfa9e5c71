package logfile

import (
	"errors"
	"fmt"
)

// ErrEncryptionNotImplemented is returned for a body that is encrypted, i.e. the
// header carries a content key.
var ErrEncryptionNotImplemented = errors.New("encryption key: decrypting the body is not implemented")

// FrameError is returned if a log file doesn't contain the marker between
// header and body.
type FrameError struct {
	Size int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("unable to split header and body: no marker found in %d bytes", e.Size)
}

// HeaderParseError describes a header line that couldn't be bound to its
// field. It doesn't abort parsing.
type HeaderParseError struct {
	Line int
	Key  string
	Err  error
}

func (e *HeaderParseError) Error() string {
	return fmt.Sprintf("header line %d (%s): %s", e.Line, e.Key, e.Err)
}

func (e *HeaderParseError) Unwrap() error {
	return e.Err
}

// ChecksumMismatch is returned if the checksum of the body doesn't match the
// checksum from the header.
type ChecksumMismatch struct {
	Expected string
	Actual   string
}

func (e *ChecksumMismatch) Error() string {
	return fmt.Sprintf("checksum mismatch: expected=%s, found=%s", e.Expected, e.Actual)
}
