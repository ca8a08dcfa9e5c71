// Package time provides a replaceable source for the current time.
package time

import (
	"sync"
	"time"
)

type Source interface {
	Now() time.Time
}

type StdSource struct{}

func (s *StdSource) Now() time.Time {
	return time.Now()
}

// TestSource returns N on every call to Now. If Step is non-zero, N is
// advanced by Step after each call.
type TestSource struct {
	N    time.Time
	Step time.Duration

	lock sync.Mutex
}

func (t *TestSource) Now() time.Time {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.N
	t.N = t.N.Add(t.Step)

	return now
}

func (t *TestSource) Set(sec int64, nsec int64) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.N = time.Unix(sec, nsec)
}
