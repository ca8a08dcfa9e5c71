package api

import (
	"time"

	"github.com/ezshield/logrelay/relay/store"
)

// State is the progress of the relay
type State struct {
	StartupTime    string      `json:"startup_time,omitempty"`    // RFC3339
	LastCycleTime  string      `json:"last_cycle_time,omitempty"` // RFC3339
	LastCycleError string      `json:"last_cycle_error,omitempty"`
	Files          []FileState `json:"files"`
}

// FileState is the progress of a single log file
type FileState struct {
	Name   string  `json:"name" jsonschema:"minLength=1"`
	Status string  `json:"status" jsonschema:"enum=pending,enum=pull_failed,enum=pull_exhausted,enum=pulled,enum=pushed,enum=push_failed"`
	Pull   Attempt `json:"pull"`
	Push   Attempt `json:"push"`
}

// Attempt are the tries of a pull or a push
type Attempt struct {
	Count       int    `json:"count" jsonschema:"minimum=0"`
	LastAttempt string `json:"last_attempt,omitempty"` // RFC3339
	LastError   string `json:"last_error,omitempty"`
	Success     string `json:"success,omitempty"` // RFC3339
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(time.RFC3339)
}

func (a *Attempt) Unmarshal(attempt store.Attempt) {
	a.Count = attempt.Count
	a.LastAttempt = formatTime(attempt.LastAttempt)
	a.LastError = attempt.LastError
	a.Success = formatTime(attempt.Success)
}

func (f *FileState) Unmarshal(name string, state *store.FileState, pullRetryLimit, pushRetryLimit int) {
	f.Name = name
	f.Status = state.Status(pullRetryLimit, pushRetryLimit)
	f.Pull.Unmarshal(state.Pull)
	f.Push.Unmarshal(state.Push)
}

// Unmarshal converts the state. The files are sorted by name.
func (s *State) Unmarshal(state store.State, pullRetryLimit, pushRetryLimit int) {
	s.StartupTime = formatTime(state.StartupTime)
	s.LastCycleTime = formatTime(state.LastCycleTime)
	s.LastCycleError = state.LastCycleError
	s.Files = []FileState{}

	for _, name := range state.Names() {
		f := FileState{}
		f.Unmarshal(name, state.Files[name], pullRetryLimit, pushRetryLimit)

		s.Files = append(s.Files, f)
	}
}
