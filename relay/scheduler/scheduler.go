// Package scheduler triggers the cycles of a relay, either by a cron
// pattern or in a fixed interval.
package scheduler

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

type Scheduler interface {
	// Next returns the duration until the next scheduled time in reference
	// to time.Now(). If there's no next scheduled time, a negative duration
	// and an error will be returned.
	Next() (time.Duration, error)

	// NextAfter returns the same as Next(), but with the given reference
	// time.
	NextAfter(after time.Time) (time.Duration, error)
}

type scheduler struct {
	pattern  string
	interval time.Duration
	isCron   bool
}

// NewScheduler returns a scheduler for the cron pattern. If the pattern is
// empty, the interval is used.
func NewScheduler(pattern string, interval time.Duration) (Scheduler, error) {
	s := &scheduler{}

	if len(pattern) != 0 {
		cron := gronx.New()
		if !cron.IsValid(pattern) {
			return nil, fmt.Errorf("invalid cron pattern '%s'", pattern)
		}

		s.pattern = pattern
		s.isCron = true

		return s, nil
	}

	if interval <= 0 {
		return nil, fmt.Errorf("the interval must be greater than 0")
	}

	s.interval = interval

	return s, nil
}

func (s *scheduler) Next() (time.Duration, error) {
	return s.NextAfter(time.Now())
}

func (s *scheduler) NextAfter(after time.Time) (time.Duration, error) {
	if !s.isCron {
		return s.interval, nil
	}

	t, err := gronx.NextTickAfter(s.pattern, after, false)
	if err != nil {
		return time.Duration(-1), fmt.Errorf("no next time has been scheduled")
	}

	d := t.Sub(after)
	if d < time.Duration(0) {
		return d, fmt.Errorf("no next time has been scheduled")
	}

	return d, nil
}
