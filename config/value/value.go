package value

import "regexp"

// Value is a configuration setting that can be set from its string form,
// e.g. from an environment variable or a connector settings file.
type Value interface {
	// String returns a string representation of the value.
	String() string

	// Set a new value from its string representation. Returns an
	// error and leaves the value unchanged if the string can't be
	// parsed.
	Set(string) error

	// Validate the value. The returned error will
	// indicate what is wrong with the current value.
	// Returns nil if the value is OK.
	Validate() error

	// IsEmpty returns whether the value represents an empty
	// representation for that value.
	IsEmpty() bool
}

// Masker is implemented by secret values that can show their layout
// instead of being hidden completely.
type Masker interface {
	Masked() string
}

// Key is an account API key.
type Key string

func NewKey(p *string, val string) *Key {
	*p = val

	return (*Key)(p)
}

func (k *Key) Set(val string) error {
	*k = Key(val)
	return nil
}

func (k *Key) String() string {
	return string(*k)
}

func (k *Key) Validate() error {
	return nil
}

func (k *Key) IsEmpty() bool {
	return len(string(*k)) == 0
}

func (k *Key) Masked() string {
	return MaskKey(string(*k))
}

var maskPattern = regexp.MustCompile(`[0-9a-xA-X]`)

// MaskKey replaces all hex digits and most letters of key with an "X" such
// that only its length and layout are visible.
func MaskKey(key string) string {
	return maskPattern.ReplaceAllString(key, "X")
}
