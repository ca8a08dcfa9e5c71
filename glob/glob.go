// Package glob matches file names against patterns like "/*.log.{hdr,bdy}".
package glob

import (
	"github.com/gobwas/glob"
)

type Glob interface {
	Match(name string) bool
}

// Compile parses the pattern. A '*' doesn't match any of the separators, a
// '**' matches them.
func Compile(pattern string, separators ...rune) (Glob, error) {
	return glob.Compile(pattern, separators...)
}

// Match returns whether the name matches the glob pattern, also considering
// one or several optionnal separator. An error is only returned if the pattern
// is invalid.
func Match(pattern, name string, separators ...rune) (bool, error) {
	g, err := Compile(pattern, separators...)
	if err != nil {
		return false, err
	}

	return g.Match(name), nil
}
