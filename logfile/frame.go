// Package logfile decodes the log files as they are provided by the
// log-management API. A log file consists of a text header and a body,
// separated by a marker:
//
//	<header>|==|\n<body>
//
// The body is compressed with zlib, or encrypted if the header carries a
// content key.
package logfile

import (
	"bytes"
	"strings"
)

// Marker separates the header from the body.
const Marker = "|==|\n"

var marker = []byte(Marker)

// Split describes where header and body are located in a log file.
type Split struct {
	Header     string // The header as ASCII text
	BodyOffset int    // Index of the first byte of the body
	BodyLength int    // Number of bytes of the body
}

// Body returns the body of raw according to the split.
func (s Split) Body(raw []byte) []byte {
	return raw[s.BodyOffset : s.BodyOffset+s.BodyLength]
}

// SplitFrame finds the first marker in raw. The marker is only searched at the
// first len(raw)-len(Marker) positions, i.e. a marker at the very end of raw
// isn't found. It returns false if no marker has been found.
func SplitFrame(raw []byte) (Split, bool) {
	limit := len(raw) - len(marker)

	for i := 0; i < limit; i++ {
		if !bytes.HasPrefix(raw[i:], marker) {
			continue
		}

		return Split{
			Header:     ascii(raw[:i]),
			BodyOffset: i + len(marker),
			BodyLength: len(raw) - (i + len(marker)),
		}, true
	}

	return Split{}, false
}

// ascii returns data as string with all non-ASCII bytes replaced by '?'.
func ascii(data []byte) string {
	var b strings.Builder

	b.Grow(len(data))

	for _, c := range data {
		if c > 0x7f {
			c = '?'
		}

		b.WriteByte(c)
	}

	return b.String()
}
