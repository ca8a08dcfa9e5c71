// Package relay polls the index of the log-management API and moves the
// listed log files through pull and push, one file per cycle. Every step
// is recorded in the state before and after it is taken.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ezshield/logrelay/event"
	"github.com/ezshield/logrelay/fetch"
	"github.com/ezshield/logrelay/io/fs"
	"github.com/ezshield/logrelay/logfile"
	"github.com/ezshield/logrelay/relay/store"
	timesrc "github.com/ezshield/logrelay/time"

	"github.com/lithammer/shortuuid/v4"
)

// IndexFile is the path of the index relative to the base URL.
const IndexFile = "logs.index"

// Config is the configuration for a new relay.
type Config struct {
	Fetcher fetch.Fetcher // Fetches the index and the log files
	Store   store.Store   // Persists the state
	Pusher  Pusher        // Delivers the pulled files, defaults to a pusher that does nothing

	// Filesystem for the artifacts, i.e. the index, the raw log files
	// and their extracted headers and bodies. Optional.
	Filesystem    fs.Filesystem
	SaveArtifacts bool

	PullRetryLimit int // Max. number of pulls of a file
	PushRetryLimit int // Max. number of pushes of a file

	Clock    timesrc.Source // Source for the current time, optional
	Observer Observer       // Receives the events of all cycles, optional
}

// Relay runs cycles.
type Relay interface {
	// RunCycle runs a single cycle. It never fails, a failure of the cycle
	// is recorded in the state and returned in the report.
	RunCycle(ctx context.Context) Report

	// State returns a copy of the current state.
	State() store.State

	// File returns a copy of the state of a single file.
	File(name string) (store.FileState, bool)
}

// Report summarizes a cycle.
type Report struct {
	ID       string
	Started  time.Time
	Finished time.Time

	Files int    // Number of files in the index
	File  string // Name of the file that has been worked on, empty if none

	Pulled  bool  // The file has been pulled in this cycle
	PullErr error // Error of the pull in this cycle
	Pushed  bool  // The file has been pushed in this cycle
	PushErr error // Error of the push in this cycle

	Err error // The error that aborted the cycle
}

// Failed returns whether the cycle has been aborted or the file couldn't be
// pulled or pushed.
func (r Report) Failed() bool {
	return r.Err != nil || r.PullErr != nil || r.PushErr != nil
}

type relay struct {
	fetcher fetch.Fetcher
	store   store.Store
	pusher  Pusher

	fs            fs.Filesystem
	saveArtifacts bool

	pullRetryLimit int
	pushRetryLimit int

	clock    timesrc.Source
	observer Observer

	state store.State

	// Serializes the cycles and guards the state
	lock sync.Mutex
}

// New creates a relay. The state is loaded from the store and the startup
// time is recorded.
func New(config Config) (Relay, error) {
	r := &relay{
		fetcher:        config.Fetcher,
		store:          config.Store,
		pusher:         config.Pusher,
		fs:             config.Filesystem,
		saveArtifacts:  config.SaveArtifacts,
		pullRetryLimit: config.PullRetryLimit,
		pushRetryLimit: config.PushRetryLimit,
		clock:          config.Clock,
		observer:       config.Observer,
	}

	if r.fetcher == nil {
		return nil, fmt.Errorf("no fetcher provided")
	}

	if r.store == nil {
		return nil, fmt.Errorf("no store provided")
	}

	if r.pusher == nil {
		r.pusher = NewNopPusher()
	}

	if r.fs == nil {
		r.saveArtifacts = false
	}

	if r.clock == nil {
		r.clock = &timesrc.StdSource{}
	}

	if r.observer == nil {
		r.observer = nopObserver{}
	}

	state, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	r.state = state

	now := r.clock.Now()
	r.state.StartupTime = &now

	if err := r.save(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *relay) State() store.State {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.state.Clone()
}

func (r *relay) File(name string) (store.FileState, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	f, ok := r.state.Files[name]
	if !ok {
		return store.FileState{}, false
	}

	return *f.Clone(), true
}

func (r *relay) save() error {
	return r.store.Store(r.state)
}

func (r *relay) emit(report *Report, kind event.Kind, file, format string, args ...interface{}) *event.RelayEvent {
	e := event.NewRelayEvent(r.clock.Now(), kind, file, fmt.Sprintf(format, args...))
	e.CycleID = report.ID

	return e
}

func (r *relay) observe(e *event.RelayEvent) {
	r.observer.Observe(e)
}

func (r *relay) RunCycle(ctx context.Context) Report {
	r.lock.Lock()
	defer r.lock.Unlock()

	report := Report{
		ID:      shortuuid.New(),
		Started: r.clock.Now(),
	}

	started := report.Started
	r.state.LastCycleTime = &started
	r.state.LastCycleError = ""

	r.observe(r.emit(&report, event.KindCycleStarted, "", "Cycle started"))

	if err := r.cycle(ctx, &report); err != nil {
		report.Err = err
		r.state.LastCycleError = err.Error()

		r.observe(r.emit(&report, event.KindCycleFailed, report.File, "Failed to complete cycle").WithError(err))

		if err := r.save(); err != nil {
			r.observe(r.emit(&report, event.KindStateFailed, "", "Failed to store the cycle error").WithError(err))
		}
	}

	report.Finished = r.clock.Now()

	r.observe(r.emit(&report, event.KindCycleFinished, report.File, "Cycle finished").
		WithData("files", report.Files).
		WithData("duration_sec", report.Finished.Sub(report.Started).Seconds()))

	return report
}

// cycle works on the first file of the index that isn't settled. It returns
// an error if the cycle can't continue.
func (r *relay) cycle(ctx context.Context, report *Report) error {
	if err := r.save(); err != nil {
		return err
	}

	names, err := r.fetchIndex(ctx, report)
	if err != nil {
		return err
	}

	report.Files = len(names)

	for _, name := range names {
		if !validName(name) {
			r.observe(r.emit(report, event.KindFileSkipped, name, "Invalid file name"))
			continue
		}

		f := r.state.File(name)

		if f.Settled(r.pushRetryLimit) {
			r.observe(r.emit(report, event.KindFileSkipped, name, "Already settled"))
			continue
		}

		var file *LogFile

		if !f.Pull.Succeeded() {
			if f.Pull.Count >= r.pullRetryLimit {
				r.observe(r.emit(report, event.KindPullExhausted, name, "Giving up pulling after %d attempts", f.Pull.Count).
					WithData("attempts", f.Pull.Count))
				continue
			}

			report.File = name

			f.Pull.Begin(r.clock.Now())
			if err := r.save(); err != nil {
				return err
			}

			r.observe(r.emit(report, event.KindPullStarted, name, "Pulling (attempt %d of %d)", f.Pull.Count, r.pullRetryLimit).
				WithData("attempt", f.Pull.Count))

			file, err = r.pull(ctx, report, name)
			if err != nil {
				report.PullErr = err
				f.Pull.Fail(err)

				r.observe(r.emit(report, event.KindPullFailed, name, "Failed to pull").WithError(err).
					WithData("attempt", f.Pull.Count))

				if err := r.save(); err != nil {
					return err
				}

				break
			}

			report.Pulled = true
			f.Pull.Succeed(r.clock.Now())

			if err := r.save(); err != nil {
				return err
			}

			r.observe(r.emit(report, event.KindPullSucceeded, name, "Pulled").
				WithData("size", len(file.Body)))
		}

		report.File = name

		f.Push.Begin(r.clock.Now())
		if err := r.save(); err != nil {
			return err
		}

		err := r.push(ctx, report, name, file)
		if err != nil {
			report.PushErr = err
			f.Push.Fail(err)

			r.observe(r.emit(report, event.KindPushFailed, name, "Failed to push").WithError(err).
				WithData("attempt", f.Push.Count))
		} else {
			report.Pushed = true
			f.Push.Succeed(r.clock.Now())

			r.observe(r.emit(report, event.KindPushSucceeded, name, "Pushed"))
		}

		if err := r.save(); err != nil {
			return err
		}

		break
	}

	return nil
}

// fetchIndex returns the names of the files listed in the index.
func (r *relay) fetchIndex(ctx context.Context, report *Report) ([]string, error) {
	index, err := r.fetcher.FetchText(ctx, IndexFile)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}

	names := strings.Fields(index)

	r.observe(r.emit(report, event.KindIndexFetched, "", "Retrieved index").
		WithData("size", len(index)).
		WithData("files", len(names)))

	if err := r.saveArtifact(report, "", IndexFile, []byte(index)); err != nil {
		return nil, err
	}

	return names, nil
}

// pull fetches and decodes a log file. The artifacts are saved as soon as
// they are available.
func (r *relay) pull(ctx context.Context, report *Report, name string) (*LogFile, error) {
	raw, err := r.fetcher.FetchBytes(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := r.saveArtifact(report, name, name, raw); err != nil {
		return nil, err
	}

	return r.process(report, name, raw)
}

func (r *relay) process(report *Report, name string, raw []byte) (*LogFile, error) {
	split, ok := logfile.SplitFrame(raw)
	if !ok {
		return nil, &logfile.FrameError{Size: len(raw)}
	}

	if err := r.saveArtifact(report, name, name+".hdr", []byte(split.Header)); err != nil {
		return nil, err
	}

	header := r.parseHeader(report, name, split.Header)

	body, err := logfile.DecodeBody(header, split.Body(raw))
	if err != nil {
		return nil, err
	}

	if err := r.saveArtifact(report, name, name+".bdy", body); err != nil {
		return nil, err
	}

	if err := logfile.VerifyChecksum(header.Checksum, body); err != nil {
		r.observe(r.emit(report, event.KindChecksumMismatch, name, "Checksum doesn't match").WithError(err))
	}

	return &LogFile{
		Name:   name,
		Header: header,
		Body:   body,
	}, nil
}

func (r *relay) parseHeader(report *Report, name, text string) *logfile.Header {
	header := logfile.ParseHeader(text)

	for _, p := range header.Problems {
		r.observe(r.emit(report, event.KindHeaderProblem, name, "Invalid header line").WithError(p).
			WithData("line", p.Line).
			WithData("key", p.Key))
	}

	if n := header.UnknownCount(); n > 0 {
		e := r.emit(report, event.KindHeaderUnknown, name, "Header contains %d unknown entries", n).
			WithData("count", n)

		for _, nv := range header.Unknown {
			if nv.Value == nil {
				e.WithData("header."+nv.Name, nil)
			} else {
				e.WithData("header."+nv.Name, *nv.Value)
			}
		}

		r.observe(e)
	} else {
		r.observe(r.emit(report, event.KindHeaderParsed, name, "Parsed header").
			WithData("header", header.String()))
	}

	return header
}

// push delivers the file. If the file has been pulled in an earlier cycle,
// it is restored from the artifacts or fetched again.
func (r *relay) push(ctx context.Context, report *Report, name string, file *LogFile) error {
	if file == nil {
		var err error

		file, err = r.restore(ctx, report, name)
		if err != nil {
			return fmt.Errorf("restoring pulled file: %w", err)
		}
	}

	return r.pusher.Push(ctx, file)
}

func (r *relay) restore(ctx context.Context, report *Report, name string) (*LogFile, error) {
	if r.fs != nil {
		hdr, herr := r.fs.ReadFile(artifactPath(name + ".hdr"))
		body, berr := r.fs.ReadFile(artifactPath(name + ".bdy"))

		if herr == nil && berr == nil {
			return &LogFile{
				Name:   name,
				Header: logfile.ParseHeader(string(hdr)),
				Body:   body,
			}, nil
		}

		if err := errors.Join(herr, berr); !fs.IsNotExist(err) {
			return nil, err
		}
	}

	raw, err := r.fetcher.FetchBytes(ctx, name)
	if err != nil {
		return nil, err
	}

	return r.process(report, name, raw)
}

func (r *relay) saveArtifact(report *Report, file, name string, data []byte) error {
	if !r.saveArtifacts {
		return nil
	}

	path := artifactPath(name)

	if _, _, err := r.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	r.observe(r.emit(report, event.KindArtifactSaved, file, "Saved %s", path).
		WithData("path", path).
		WithData("size", len(data)))

	return nil
}

// validName returns whether the artifacts of the file can be stored
// next to the index and the state without replacing any of them.
func validName(name string) bool {
	if name == IndexFile || strings.HasPrefix(name, ".") {
		return false
	}

	if strings.ContainsAny(name, "/\\") {
		return false
	}

	if strings.HasSuffix(name, ".hdr") || strings.HasSuffix(name, ".bdy") {
		return false
	}

	return true
}

func artifactPath(name string) string {
	return "/" + strings.TrimPrefix(name, "/")
}
