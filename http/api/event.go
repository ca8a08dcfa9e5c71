package api

import (
	"fmt"
	"slices"

	"github.com/ezshield/logrelay/encoding/json"
	"github.com/ezshield/logrelay/event"
)

// RelayEvent is the outcome of a single step of a relay cycle
type RelayEvent struct {
	Timestamp int64  `json:"ts" format:"int64"`
	Kind      string `json:"kind"`
	Level     string `json:"level"`
	CycleID   string `json:"cycle_id,omitempty"`
	File      string `json:"file,omitempty"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`

	Data map[string]string `json:"data"`
}

func (e *RelayEvent) Unmarshal(evt event.Event) bool {
	re, ok := evt.(*event.RelayEvent)
	if !ok {
		return false
	}

	e.Timestamp = re.Time.UnixMilli()
	e.Kind = string(re.Kind)
	e.Level = re.Level
	e.CycleID = re.CycleID
	e.File = re.File
	e.Message = re.Message
	e.Error = ""

	if re.Err != nil {
		e.Error = re.Err.Error()
	}

	e.Data = make(map[string]string)

	for k, v := range re.Data {
		var value string

		switch val := v.(type) {
		case string:
			value = val
		case error:
			value = val.Error()
		case nil:
			value = ""
		default:
			if s, ok := v.(fmt.Stringer); ok {
				value = s.String()
			} else {
				if jsonvalue, err := json.Marshal(v); err == nil {
					value = string(jsonvalue)
				} else {
					value = err.Error()
				}
			}
		}

		e.Data[k] = value
	}

	return true
}

// RelayEventFilter selects the events of a stream
type RelayEventFilter struct {
	Kinds []string `json:"kinds" validate:"dive,required"`
	Level string   `json:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string   `json:"file"`
}

var levels = map[string]int{
	"error": 1,
	"warn":  2,
	"info":  3,
	"debug": 4,
}

// Match returns whether the event passes the filter. Level is the
// least severe level that passes.
func (f *RelayEventFilter) Match(e *event.RelayEvent) bool {
	if len(f.Kinds) != 0 && !slices.Contains(f.Kinds, string(e.Kind)) {
		return false
	}

	if len(f.Level) != 0 && levels[e.Level] > levels[f.Level] {
		return false
	}

	if len(f.File) != 0 && f.File != e.File {
		return false
	}

	return true
}
