package event

import (
	"maps"
	"time"
)

// Kind names what happened in the relay.
type Kind string

const (
	KindCycleStarted     Kind = "cycle_started"
	KindCycleFinished    Kind = "cycle_finished"
	KindCycleFailed      Kind = "cycle_failed"
	KindIndexFetched     Kind = "index_fetched"
	KindFileSkipped      Kind = "file_skipped"
	KindPullExhausted    Kind = "pull_exhausted"
	KindPullStarted      Kind = "pull_started"
	KindPullSucceeded    Kind = "pull_succeeded"
	KindPullFailed       Kind = "pull_failed"
	KindArtifactSaved    Kind = "artifact_saved"
	KindHeaderParsed     Kind = "header_parsed"
	KindHeaderUnknown    Kind = "header_unknown"
	KindHeaderProblem    Kind = "header_problem"
	KindChecksumMismatch Kind = "checksum_mismatch"
	KindPushSucceeded    Kind = "push_succeeded"
	KindPushFailed       Kind = "push_failed"
	KindStateFailed      Kind = "state_failed"
)

// RelayEvent is the outcome of a single step of a relay cycle.
type RelayEvent struct {
	Time    time.Time
	Kind    Kind
	Level   string // One of "debug", "info", "warn", "error"
	CycleID string
	File    string
	Message string
	Err     error

	Data map[string]any
}

func (e *RelayEvent) Clone() Event {
	evt := &RelayEvent{
		Time:    e.Time,
		Kind:    e.Kind,
		Level:   e.Level,
		CycleID: e.CycleID,
		File:    e.File,
		Message: e.Message,
		Err:     e.Err,
		Data:    maps.Clone(e.Data),
	}

	return evt
}

// NewRelayEvent returns an event of the given kind. The level is derived
// from the kind.
func NewRelayEvent(ts time.Time, kind Kind, file, message string) *RelayEvent {
	return &RelayEvent{
		Time:    ts,
		Kind:    kind,
		Level:   levelOf(kind),
		File:    file,
		Message: message,
	}
}

// WithError sets the error of the event.
func (e *RelayEvent) WithError(err error) *RelayEvent {
	e.Err = err
	return e
}

// WithData adds a value to the data of the event.
func (e *RelayEvent) WithData(key string, value any) *RelayEvent {
	if e.Data == nil {
		e.Data = map[string]any{}
	}

	e.Data[key] = value

	return e
}

func levelOf(kind Kind) string {
	switch kind {
	case KindCycleFailed, KindPullFailed, KindPushFailed, KindStateFailed:
		return "error"
	case KindPullExhausted, KindHeaderUnknown, KindHeaderProblem, KindChecksumMismatch:
		return "warn"
	case KindCycleStarted, KindCycleFinished, KindPullSucceeded, KindPushSucceeded:
		return "info"
	}

	return "debug"
}
