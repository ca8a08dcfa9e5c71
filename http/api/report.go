package api

import (
	"time"

	"github.com/ezshield/logrelay/relay"
)

// Report summarizes a cycle
type Report struct {
	ID        string  `json:"id"`
	Started   string  `json:"started"`  // RFC3339
	Finished  string  `json:"finished"` // RFC3339
	Duration  float64 `json:"duration_sec"`
	Files     int     `json:"files" jsonschema:"minimum=0"`
	File      string  `json:"file,omitempty"`
	Pulled    bool    `json:"pulled"`
	PullError string  `json:"pull_error,omitempty"`
	Pushed    bool    `json:"pushed"`
	PushError string  `json:"push_error,omitempty"`
	Error     string  `json:"error,omitempty"`
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

func (r *Report) Unmarshal(report relay.Report) {
	r.ID = report.ID
	r.Started = report.Started.Format(time.RFC3339)
	r.Finished = report.Finished.Format(time.RFC3339)
	r.Duration = report.Finished.Sub(report.Started).Seconds()
	r.Files = report.Files
	r.File = report.File
	r.Pulled = report.Pulled
	r.PullError = errorString(report.PullErr)
	r.Pushed = report.Pushed
	r.PushError = errorString(report.PushErr)
	r.Error = errorString(report.Err)
}
