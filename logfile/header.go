package logfile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Header is the parsed header of a log file.
type Header struct {
	StartTime   int64  `json:"startTime"`   // Start time of the log file in ms since epoch
	EndTime     int64  `json:"endTime"`     // End time of the log file in ms since epoch
	AccountID   string `json:"accountId"`   // ID of the account
	Format      string `json:"format"`      // Format of the events: CEF, LEEF or W3C
	Checksum    string `json:"checksum"`    // MD5 of the plain body
	PublicKeyID string `json:"publicKeyId"` // ID of the public key the content key is encrypted with
	Key         string `json:"key"`         // Content key of an encrypted body
	ConfigID    string `json:"configId"`    // Configuration ID of the account
	W3CFields   string `json:"w3cFields"`   // List of fields for the W3C format

	// Unknown holds all lines with unknown keys in the order of their
	// first appearance.
	Unknown []NamedValue `json:"unknown,omitempty"`

	// Problems holds all lines that couldn't be bound to a field.
	Problems []*HeaderParseError `json:"-"`
}

// NamedValue is a header line with an unknown key. Value is nil if the
// line has no colon.
type NamedValue struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

type setter func(h *Header, value string) error

func setString(field func(h *Header) *string) setter {
	return func(h *Header, value string) error {
		*field(h) = value
		return nil
	}
}

func setInt64(field func(h *Header) *int64) setter {
	return func(h *Header, value string) error {
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return err
		}

		*field(h) = v

		return nil
	}
}

// setters binds the normalized key names to the fields.
var setters = map[string]setter{
	"starttime":   setInt64(func(h *Header) *int64 { return &h.StartTime }),
	"endtime":     setInt64(func(h *Header) *int64 { return &h.EndTime }),
	"accountid":   setString(func(h *Header) *string { return &h.AccountID }),
	"format":      setString(func(h *Header) *string { return &h.Format }),
	"checksum":    setString(func(h *Header) *string { return &h.Checksum }),
	"publickeyid": setString(func(h *Header) *string { return &h.PublicKeyID }),
	"key":         setString(func(h *Header) *string { return &h.Key }),
	"configid":    setString(func(h *Header) *string { return &h.ConfigID }),
	"w3c_fields":  setString(func(h *Header) *string { return &h.W3CFields }),
}

// normalizeKey returns the key in lower case with all spaces replaced by "_".
func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, " ", "_"))
}

var lineSplitter = regexp.MustCompile(`\r?\n`)

// ParseHeader parses the "key:value" lines of a header. Keys are not case
// sensitive and a space in a key is the same as "_". Lines with unknown keys
// are kept in Unknown. Lines that can't be bound to their field are kept
// in Problems. ParseHeader never fails.
func ParseHeader(text string) *Header {
	h := &Header{}

	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return h
	}

	for i, line := range lineSplitter.Split(text, -1) {
		if len(line) == 0 {
			continue
		}

		key, value, found := strings.Cut(line, ":")

		set, known := setters[normalizeKey(key)]
		if !known {
			if found {
				h.setUnknown(key, &value)
			} else {
				h.setUnknown(key, nil)
			}
		}

		if !found {
			h.Problems = append(h.Problems, &HeaderParseError{
				Line: i + 1,
				Key:  key,
				Err:  fmt.Errorf("missing ':' between key and value"),
			})

			continue
		}

		if !known {
			continue
		}

		if err := set(h, value); err != nil {
			h.Problems = append(h.Problems, &HeaderParseError{
				Line: i + 1,
				Key:  key,
				Err:  err,
			})
		}
	}

	return h
}

// setUnknown adds the key with its value. If the key is already present, its
// value is replaced and it keeps its position.
func (h *Header) setUnknown(key string, value *string) {
	for i := range h.Unknown {
		if h.Unknown[i].Name == key {
			h.Unknown[i].Value = value
			return
		}
	}

	h.Unknown = append(h.Unknown, NamedValue{
		Name:  key,
		Value: value,
	})
}

// UnknownCount returns the number of distinct unknown keys.
func (h *Header) UnknownCount() int {
	return len(h.Unknown)
}

// Get returns the value of an unknown key.
func (h *Header) Get(key string) (string, bool) {
	for _, nv := range h.Unknown {
		if nv.Name == key {
			if nv.Value == nil {
				return "", true
			}

			return *nv.Value, true
		}
	}

	return "", false
}

// String returns the header lines of all known keys that have a
// value. Unknown keys are not included.
func (h *Header) String() string {
	lines := []string{}

	add := func(key, value string) {
		if len(value) != 0 {
			lines = append(lines, key+":"+value)
		}
	}

	if h.StartTime != 0 {
		add("startTime", strconv.FormatInt(h.StartTime, 10))
	}

	if h.EndTime != 0 {
		add("endTime", strconv.FormatInt(h.EndTime, 10))
	}

	add("accountId", h.AccountID)
	add("format", h.Format)
	add("checksum", h.Checksum)
	add("publicKeyId", h.PublicKeyID)
	add("key", h.Key)
	add("configId", h.ConfigID)
	add("W3C fields", h.W3CFields)

	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
