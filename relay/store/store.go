// Package store holds the persisted progress of the relay and the
// stores to load and save it.
package store

import (
	"sort"
	"time"
)

// Version is the layout version of State.
const Version uint64 = 1

// State is the progress of the relay across all cycles.
type State struct {
	Version        uint64                `json:"version"`
	StartupTime    *time.Time            `json:"startupTime"`
	LastCycleTime  *time.Time            `json:"lastCycleTime"`
	LastCycleError string                `json:"lastCycleError,omitempty"`
	Files          map[string]*FileState `json:"files"`
}

// NewState returns an empty state.
func NewState() State {
	return State{
		Version: Version,
		Files:   map[string]*FileState{},
	}
}

// File returns the state of the file with the given name. The state is
// created if it doesn't exist yet.
func (s *State) File(name string) *FileState {
	if s.Files == nil {
		s.Files = map[string]*FileState{}
	}

	f, ok := s.Files[name]
	if !ok {
		f = &FileState{}
		s.Files[name] = f
	}

	return f
}

// Names returns the names of all files, sorted.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.Files))

	for name := range s.Files {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := State{
		Version:        s.Version,
		StartupTime:    cloneTime(s.StartupTime),
		LastCycleTime:  cloneTime(s.LastCycleTime),
		LastCycleError: s.LastCycleError,
		Files:          make(map[string]*FileState, len(s.Files)),
	}

	for name, f := range s.Files {
		c.Files[name] = f.Clone()
	}

	return c
}

// FileState is the progress of a single log file.
type FileState struct {
	CreateTime *time.Time `json:"createTime"`
	Pull       Attempt    `json:"pull"`
	Push       Attempt    `json:"push"`
}

func (f *FileState) Clone() *FileState {
	if f == nil {
		return &FileState{}
	}

	return &FileState{
		CreateTime: cloneTime(f.CreateTime),
		Pull:       f.Pull.clone(),
		Push:       f.Push.clone(),
	}
}

// Settled returns whether the file will not be looked at anymore, i.e. a push
// has been attempted or the push retries are exhausted.
func (f *FileState) Settled(pushRetryLimit int) bool {
	return f.Push.LastAttempt != nil || f.Push.Count >= pushRetryLimit
}

// Status returns the status of the file: "pending", "pull_failed",
// "pull_exhausted", "pulled", "pushed" or "push_failed".
func (f *FileState) Status(pullRetryLimit, pushRetryLimit int) string {
	switch {
	case f.Push.Succeeded():
		return "pushed"
	case f.Settled(pushRetryLimit):
		return "push_failed"
	case f.Pull.Succeeded():
		return "pulled"
	case f.Pull.Count >= pullRetryLimit:
		return "pull_exhausted"
	case f.Pull.Count > 0:
		return "pull_failed"
	}

	return "pending"
}

// Attempt tracks the tries of a pull or a push.
type Attempt struct {
	Count       int        `json:"retryCount"`
	LastAttempt *time.Time `json:"tryTime"`
	LastError   string     `json:"lastError,omitempty"`
	Success     *time.Time `json:"successTime"`
}

// Begin registers a new try at the given time.
func (a *Attempt) Begin(t time.Time) {
	a.LastAttempt = &t
	a.Count++
}

// Fail registers the error of the last try.
func (a *Attempt) Fail(err error) {
	a.LastError = err.Error()
}

// Succeed registers the success of the last try at the given time.
func (a *Attempt) Succeed(t time.Time) {
	a.Success = &t
	a.LastError = ""
}

// Succeeded returns whether a try has been successful.
func (a *Attempt) Succeeded() bool {
	return a.Success != nil
}

func (a Attempt) clone() Attempt {
	return Attempt{
		Count:       a.Count,
		LastAttempt: cloneTime(a.LastAttempt),
		LastError:   a.LastError,
		Success:     cloneTime(a.Success),
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	c := *t

	return &c
}

// Store loads and saves the state.
type Store interface {
	// Load returns the stored state. A missing state is not an error, an
	// empty state will be returned instead.
	Load() (State, error)

	// Store persists the state. It returns only after the state is durable.
	Store(data State) error
}
