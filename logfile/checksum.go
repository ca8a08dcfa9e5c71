package logfile

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Checksum returns the MD5 sum of data as 32 uppercase hex digits.
func Checksum(data []byte) string {
	sum := md5.Sum(data)

	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// VerifyChecksum compares the checksum of body with expected, ignoring the case.
// It returns nil if they are equal or if expected is empty.
func VerifyChecksum(expected string, body []byte) error {
	if len(expected) == 0 {
		return nil
	}

	actual := Checksum(body)

	if !strings.EqualFold(expected, actual) {
		return &ChecksumMismatch{
			Expected: expected,
			Actual:   actual,
		}
	}

	return nil
}
