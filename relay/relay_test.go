package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ezshield/logrelay/event"
	"github.com/ezshield/logrelay/fetch"
	"github.com/ezshield/logrelay/io/fs"
	"github.com/ezshield/logrelay/logfile"
	"github.com/ezshield/logrelay/relay/store"
	timesrc "github.com/ezshield/logrelay/time"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	files map[string][]byte
	errs  map[string]error
	calls map[string]int
	hook  func(path string)

	lock sync.Mutex
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		files: map[string][]byte{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) FetchText(ctx context.Context, path string) (string, error) {
	data, err := f.FetchBytes(ctx, path)
	return string(data), err
}

func (f *fakeFetcher) FetchBytes(ctx context.Context, path string) ([]byte, error) {
	f.lock.Lock()
	f.calls[path]++
	hook := f.hook
	data, ok := f.files[path]
	err := f.errs[path]
	f.lock.Unlock()

	if hook != nil {
		hook(path)
	}

	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &fetch.TransportError{Path: path, StatusCode: http.StatusNotFound, Err: errors.New(http.StatusText(http.StatusNotFound))}
	}

	return data, nil
}

func (f *fakeFetcher) Calls(path string) int {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.calls[path]
}

func (f *fakeFetcher) Set(path string, data []byte) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.files[path] = data
}

func logFile(header string, body string) []byte {
	return append([]byte(header+logfile.Marker), logfile.Compress([]byte(body))...)
}

func validLogFile(body string) []byte {
	return logFile("startTime:1474886387382\nendTime:1474886672511\naccountId:405057\nformat:CEF\nchecksum:"+logfile.Checksum([]byte(body))+"\n", body)
}

type recorder struct {
	events []*event.RelayEvent
	lock   sync.Mutex
}

func (r *recorder) Observe(e *event.RelayEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.events = append(r.events, e)
}

func (r *recorder) Kinds(file string) []event.Kind {
	r.lock.Lock()
	defer r.lock.Unlock()

	kinds := []event.Kind{}

	for _, e := range r.events {
		if e.File == file {
			kinds = append(kinds, e.Kind)
		}
	}

	return kinds
}

func (r *recorder) Has(kind event.Kind) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, e := range r.events {
		if e.Kind == kind {
			return true
		}
	}

	return false
}

type testRelay struct {
	Relay
	fetcher  *fakeFetcher
	fs       fs.Filesystem
	store    store.Store
	recorder *recorder
	pushed   []*LogFile
}

func newTestRelay(t *testing.T, pusher Pusher) *testRelay {
	memfs, err := fs.NewMemFilesystem(fs.MemConfig{})
	require.NoError(t, err)

	s, err := store.NewJSON(store.JSONConfig{Filesystem: memfs})
	require.NoError(t, err)

	tr := &testRelay{
		fetcher:  newFakeFetcher(),
		fs:       memfs,
		store:    s,
		recorder: &recorder{},
	}

	if pusher == nil {
		pusher = PusherFunc(func(ctx context.Context, file *LogFile) error {
			tr.pushed = append(tr.pushed, file)
			return nil
		})
	}

	r, err := New(Config{
		Fetcher:        tr.fetcher,
		Store:          s,
		Pusher:         pusher,
		Filesystem:     memfs,
		SaveArtifacts:  true,
		PullRetryLimit: 3,
		PushRetryLimit: 3,
		Clock:          &timesrc.TestSource{N: time.Unix(1474886387, 0).UTC(), Step: time.Second},
		Observer:       tr.recorder,
	})
	require.NoError(t, err)

	tr.Relay = r

	return tr
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{Fetcher: newFakeFetcher()})
	require.Error(t, err)

	s := store.NewDummy(nil)

	r, err := New(Config{Fetcher: newFakeFetcher(), Store: s})
	require.NoError(t, err)

	require.NotNil(t, r.State().StartupTime)

	data, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, data.StartupTime)
}

func TestNewStoreFailure(t *testing.T) {
	_, err := New(Config{
		Fetcher: newFakeFetcher(),
		Store:   store.NewDummy(errors.New("disk full")),
	})

	var ioerr *store.StateIOError
	require.ErrorAs(t, err, &ioerr)
}

func TestCycle(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log\nb.log\n"))
	r.fetcher.Set("a.log", validLogFile("line 1\nline 2\n"))

	report := r.RunCycle(context.Background())

	require.NoError(t, report.Err)
	require.False(t, report.Failed())
	require.NotEmpty(t, report.ID)
	require.Equal(t, 2, report.Files)
	require.Equal(t, "a.log", report.File)
	require.True(t, report.Pulled)
	require.True(t, report.Pushed)
	require.True(t, report.Finished.After(report.Started))

	f, ok := r.File("a.log")
	require.True(t, ok)
	require.Equal(t, 1, f.Pull.Count)
	require.NotNil(t, f.Pull.LastAttempt)
	require.NotNil(t, f.Pull.Success)
	require.Equal(t, 1, f.Push.Count)
	require.NotNil(t, f.Push.Success)

	_, ok = r.File("b.log")
	require.False(t, ok)

	require.Len(t, r.pushed, 1)
	require.Equal(t, "a.log", r.pushed[0].Name)
	require.Equal(t, "CEF", r.pushed[0].Header.Format)
	require.Equal(t, []byte("line 1\nline 2\n"), r.pushed[0].Body)

	for path, content := range map[string]string{
		"/logs.index": "a.log\nb.log\n",
		"/a.log.hdr":  "startTime:1474886387382\nendTime:1474886672511\naccountId:405057\nformat:CEF\nchecksum:" + logfile.Checksum([]byte("line 1\nline 2\n")) + "\n",
		"/a.log.bdy":  "line 1\nline 2\n",
	} {
		data, err := r.fs.ReadFile(path)
		require.NoError(t, err, path)
		require.Equal(t, content, string(data), path)
	}

	raw, err := r.fs.ReadFile("/a.log")
	require.NoError(t, err)
	require.Equal(t, validLogFile("line 1\nline 2\n"), raw)

	require.Equal(t, []event.Kind{
		event.KindPullStarted,
		event.KindArtifactSaved,
		event.KindArtifactSaved,
		event.KindHeaderParsed,
		event.KindArtifactSaved,
		event.KindPullSucceeded,
		event.KindPushSucceeded,
		event.KindCycleFinished,
	}, r.recorder.Kinds("a.log"))

	state := r.State()
	require.NotNil(t, state.LastCycleTime)
	require.Empty(t, state.LastCycleError)
}

func TestCycleSingleFile(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log b.log\tc.log"))
	r.fetcher.Set("a.log", validLogFile("a"))
	r.fetcher.Set("b.log", validLogFile("b"))
	r.fetcher.Set("c.log", validLogFile("c"))

	for i, name := range []string{"a.log", "b.log", "c.log"} {
		report := r.RunCycle(context.Background())
		require.Equal(t, name, report.File)

		state := r.State()
		require.Len(t, state.Files, i+1)

		for _, n := range state.Names() {
			require.True(t, state.Files[n].Pull.Succeeded(), n)
			require.True(t, state.Files[n].Push.Succeeded(), n)
		}
	}

	report := r.RunCycle(context.Background())
	require.Empty(t, report.File)
	require.False(t, report.Pulled)
	require.Len(t, r.pushed, 3)

	for _, name := range []string{"a.log", "b.log", "c.log"} {
		require.Equal(t, 1, r.fetcher.Calls(name))
	}

	require.Equal(t, 4, r.fetcher.Calls(IndexFile))
}

func TestCycleBlankEntries(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("  \r\n\n  a.log  \t\n"))
	r.fetcher.Set("a.log", validLogFile("a"))

	report := r.RunCycle(context.Background())
	require.Equal(t, 1, report.Files)
	require.Equal(t, "a.log", report.File)

	st := r.State()
	require.Equal(t, []string{"a.log"}, st.Names())
}

func TestCycleReservedNames(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte(".state\nlogs.index\n../x.log\nb.log.hdr\na.log\n"))
	for _, name := range []string{".state", "logs.index", "../x.log", "b.log.hdr", "a.log"} {
		r.fetcher.Set(name, validLogFile("a"))
	}

	report := r.RunCycle(context.Background())
	require.Equal(t, "a.log", report.File)
	require.True(t, report.Pushed)

	st := r.State()
	require.Equal(t, []string{"a.log"}, st.Names())

	skipped := 0
	for _, name := range []string{".state", "logs.index", "../x.log", "b.log.hdr"} {
		for _, kind := range r.recorder.Kinds(name) {
			require.Equal(t, event.KindFileSkipped, kind, name)
			skipped++
		}
	}
	require.Equal(t, 4, skipped)

	data, err := r.fs.ReadFile("/logs.index")
	require.NoError(t, err)
	require.Equal(t, ".state\nlogs.index\n../x.log\nb.log.hdr\na.log\n", string(data))

	loaded, err := r.store.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"a.log"}, loaded.Names())
}

func TestCyclePullRetryBound(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log"))

	for i := 1; i <= 5; i++ {
		report := r.RunCycle(context.Background())
		require.NoError(t, report.Err)

		f, _ := r.File("a.log")

		if i <= 3 {
			require.Equal(t, "a.log", report.File)
			require.Error(t, report.PullErr)

			var terr *fetch.TransportError
			require.ErrorAs(t, report.PullErr, &terr)
			require.Equal(t, http.StatusNotFound, terr.StatusCode)

			require.Equal(t, i, f.Pull.Count)
			require.NotEmpty(t, f.Pull.LastError)
		} else {
			require.Empty(t, report.File)
			require.NoError(t, report.PullErr)
			require.Equal(t, 3, f.Pull.Count)
		}

		require.Nil(t, f.Pull.Success)
		require.Equal(t, 0, f.Push.Count)
		require.Nil(t, f.Push.LastAttempt)
	}

	require.Equal(t, 3, r.fetcher.Calls("a.log"))
	require.True(t, r.recorder.Has(event.KindPullExhausted))
	require.Empty(t, r.pushed)
}

func TestCycleExhaustedFileIsPassed(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log b.log"))

	for i := 0; i < 3; i++ {
		report := r.RunCycle(context.Background())
		require.Equal(t, "a.log", report.File)
	}

	r.fetcher.Set("b.log", validLogFile("b"))

	report := r.RunCycle(context.Background())
	require.Equal(t, "b.log", report.File)
	require.True(t, report.Pushed)
}

func TestCyclePullRetrySucceeds(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log"))

	report := r.RunCycle(context.Background())
	require.Error(t, report.PullErr)
	require.False(t, report.Pushed)

	r.fetcher.Set("a.log", validLogFile("a"))

	report = r.RunCycle(context.Background())
	require.NoError(t, report.PullErr)
	require.True(t, report.Pulled)
	require.True(t, report.Pushed)

	f, _ := r.File("a.log")
	require.Equal(t, 2, f.Pull.Count)
	require.Empty(t, f.Pull.LastError)
}

func TestCycleEncrypted(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log"))
	r.fetcher.Set("a.log", logFile("publicKeyId:1\nkey:c2VjcmV0\n", "a"))

	report := r.RunCycle(context.Background())
	require.ErrorIs(t, report.PullErr, logfile.ErrEncryptionNotImplemented)

	f, _ := r.File("a.log")
	require.Nil(t, f.Pull.Success)
	require.Equal(t, 1, f.Pull.Count)
	require.Contains(t, f.Pull.LastError, "not implemented")

	_, err := r.fs.Stat("/a.log.hdr")
	require.NoError(t, err)

	_, err = r.fs.Stat("/a.log.bdy")
	require.True(t, fs.IsNotExist(err))

	report = r.RunCycle(context.Background())
	require.ErrorIs(t, report.PullErr, logfile.ErrEncryptionNotImplemented)

	f, _ = r.File("a.log")
	require.Equal(t, 2, f.Pull.Count)
}

func TestCycleFrameError(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log"))
	raw := []byte("startTime:1\nno marker here")
	r.fetcher.Set("a.log", raw)

	report := r.RunCycle(context.Background())

	var ferr *logfile.FrameError
	require.ErrorAs(t, report.PullErr, &ferr)
	require.Equal(t, len(raw), ferr.Size)

	_, err := r.fs.Stat("/a.log")
	require.NoError(t, err)

	_, err = r.fs.Stat("/a.log.hdr")
	require.True(t, fs.IsNotExist(err))
}

func TestCycleChecksumMismatch(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log"))
	r.fetcher.Set("a.log", logFile("checksum:ABCDEF1234567890ABCDEF1234567890\n", "a"))

	report := r.RunCycle(context.Background())
	require.NoError(t, report.PullErr)
	require.True(t, report.Pulled)
	require.True(t, report.Pushed)
	require.True(t, r.recorder.Has(event.KindChecksumMismatch))

	data, err := r.fs.ReadFile("/a.log.bdy")
	require.NoError(t, err)
	require.Equal(t, []byte("a"), data)
}

func TestCycleHeaderUnknown(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log"))
	r.fetcher.Set("a.log", logFile("format:CEF\nfoo:bar\nbaz\n", "a"))

	report := r.RunCycle(context.Background())
	require.True(t, report.Pushed)
	require.True(t, r.recorder.Has(event.KindHeaderUnknown))
	require.True(t, r.recorder.Has(event.KindHeaderProblem))
}

func TestCycleIndexFailure(t *testing.T) {
	r := newTestRelay(t, nil)

	report := r.RunCycle(context.Background())
	require.Error(t, report.Err)
	require.True(t, report.Failed())
	require.Equal(t, 0, report.Files)

	state := r.State()
	require.Contains(t, state.LastCycleError, "fetching index")

	persisted, err := r.store.Load()
	require.NoError(t, err)
	require.Equal(t, state.LastCycleError, persisted.LastCycleError)

	r.fetcher.Set(IndexFile, []byte(""))

	report = r.RunCycle(context.Background())
	require.NoError(t, report.Err)
	require.Empty(t, r.State().LastCycleError)
}

func TestCyclePushFailure(t *testing.T) {
	r := newTestRelay(t, PusherFunc(func(ctx context.Context, file *LogFile) error {
		return fmt.Errorf("target unavailable")
	}))

	r.fetcher.Set(IndexFile, []byte("a.log b.log"))
	r.fetcher.Set("a.log", validLogFile("a"))
	r.fetcher.Set("b.log", validLogFile("b"))

	report := r.RunCycle(context.Background())
	require.True(t, report.Pulled)
	require.False(t, report.Pushed)
	require.EqualError(t, report.PushErr, "target unavailable")

	f, _ := r.File("a.log")
	require.Equal(t, 1, f.Push.Count)
	require.Equal(t, "target unavailable", f.Push.LastError)
	require.Nil(t, f.Push.Success)

	// A file with a push attempt is settled
	report = r.RunCycle(context.Background())
	require.Equal(t, "b.log", report.File)

	f, _ = r.File("a.log")
	require.Equal(t, 1, f.Push.Count)
}

func TestCyclePersistsBeforeAttempt(t *testing.T) {
	r := newTestRelay(t, nil)

	r.fetcher.Set(IndexFile, []byte("a.log"))
	r.fetcher.Set("a.log", validLogFile("a"))

	var persisted store.State
	var err error

	r.fetcher.hook = func(path string) {
		if path != "a.log" {
			return
		}

		persisted, err = r.store.Load()
	}

	r.RunCycle(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, persisted.Files["a.log"].Pull.Count)
	require.NotNil(t, persisted.Files["a.log"].Pull.LastAttempt)
	require.Nil(t, persisted.Files["a.log"].Pull.Success)

	final, err := r.store.Load()
	require.NoError(t, err)
	require.NotNil(t, final.Files["a.log"].Pull.Success)
	require.NotNil(t, final.Files["a.log"].Push.Success)
}

func TestCycleResumesFromState(t *testing.T) {
	memfs, err := fs.NewMemFilesystem(fs.MemConfig{})
	require.NoError(t, err)

	s := store.NewDummy(nil)

	now := time.Now()

	state := store.NewState()
	state.File("a.log").Pull.Begin(now)
	state.File("a.log").Pull.Succeed(now)
	require.NoError(t, s.Store(state))

	memfs.WriteFile("/a.log.hdr", []byte("format:LEEF\n"))
	memfs.WriteFile("/a.log.bdy", []byte("restored"))

	fetcher := newFakeFetcher()
	fetcher.Set(IndexFile, []byte("a.log"))

	var pushed *LogFile

	r, err := New(Config{
		Fetcher:        fetcher,
		Store:          s,
		Filesystem:     memfs,
		PullRetryLimit: 3,
		PushRetryLimit: 3,
		Pusher: PusherFunc(func(ctx context.Context, file *LogFile) error {
			pushed = file
			return nil
		}),
	})
	require.NoError(t, err)

	report := r.RunCycle(context.Background())
	require.Equal(t, "a.log", report.File)
	require.False(t, report.Pulled)
	require.True(t, report.Pushed)

	require.Equal(t, 0, fetcher.Calls("a.log"))
	require.Equal(t, "LEEF", pushed.Header.Format)
	require.Equal(t, []byte("restored"), pushed.Body)

	f, _ := r.File("a.log")
	require.Equal(t, 1, f.Pull.Count)
	require.Equal(t, 1, f.Push.Count)
}

func TestCycleResumeRefetches(t *testing.T) {
	s := store.NewDummy(nil)

	now := time.Now()

	state := store.NewState()
	state.File("a.log").Pull.Begin(now)
	state.File("a.log").Pull.Succeed(now)
	require.NoError(t, s.Store(state))

	fetcher := newFakeFetcher()
	fetcher.Set(IndexFile, []byte("a.log"))
	fetcher.Set("a.log", validLogFile("again"))

	var pushed *LogFile

	r, err := New(Config{
		Fetcher:        fetcher,
		Store:          s,
		PullRetryLimit: 3,
		PushRetryLimit: 3,
		Pusher: PusherFunc(func(ctx context.Context, file *LogFile) error {
			pushed = file
			return nil
		}),
	})
	require.NoError(t, err)

	report := r.RunCycle(context.Background())
	require.True(t, report.Pushed)
	require.Equal(t, 1, fetcher.Calls("a.log"))
	require.Equal(t, []byte("again"), pushed.Body)

	f, _ := r.File("a.log")
	require.Equal(t, 1, f.Pull.Count)
}

func TestCyclePushLimitZero(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Set(IndexFile, []byte("a.log"))
	fetcher.Set("a.log", validLogFile("a"))

	r, err := New(Config{
		Fetcher:        fetcher,
		Store:          store.NewDummy(nil),
		PullRetryLimit: 3,
		PushRetryLimit: 0,
	})
	require.NoError(t, err)

	report := r.RunCycle(context.Background())
	require.Empty(t, report.File)
	require.Equal(t, 0, fetcher.Calls("a.log"))
}

func TestCycleWithoutArtifacts(t *testing.T) {
	memfs, err := fs.NewMemFilesystem(fs.MemConfig{})
	require.NoError(t, err)

	fetcher := newFakeFetcher()
	fetcher.Set(IndexFile, []byte("a.log"))
	fetcher.Set("a.log", validLogFile("a"))

	r, err := New(Config{
		Fetcher:        fetcher,
		Store:          store.NewDummy(nil),
		Filesystem:     memfs,
		SaveArtifacts:  false,
		PullRetryLimit: 3,
		PushRetryLimit: 3,
	})
	require.NoError(t, err)

	report := r.RunCycle(context.Background())
	require.True(t, report.Pushed)
	require.Empty(t, memfs.List("/", ""))
}

type failingStore struct {
	inner     store.Store
	failAfter int
	calls     int
}

func (s *failingStore) Load() (store.State, error) {
	return s.inner.Load()
}

func (s *failingStore) Store(data store.State) error {
	s.calls++
	if s.calls > s.failAfter {
		return &store.StateIOError{Op: "write", Path: "test", Err: errors.New("disk full")}
	}

	return s.inner.Store(data)
}

func TestCycleStateFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Set(IndexFile, []byte("a.log"))
	fetcher.Set("a.log", validLogFile("a"))

	s := &failingStore{inner: store.NewDummy(nil), failAfter: 2}
	rec := &recorder{}

	r, err := New(Config{
		Fetcher:        fetcher,
		Store:          s,
		PullRetryLimit: 3,
		PushRetryLimit: 3,
		Observer:       rec,
	})
	require.NoError(t, err)

	// Startup, cycle start, then the pull attempt fails to persist
	report := r.RunCycle(context.Background())

	var ioerr *store.StateIOError
	require.ErrorAs(t, report.Err, &ioerr)
	require.Equal(t, 0, fetcher.Calls("a.log"))
	require.True(t, rec.Has(event.KindStateFailed))
	require.Contains(t, r.State().LastCycleError, "disk full")
}

func TestObservers(t *testing.T) {
	a := &recorder{}
	b := &recorder{}

	o := Observers(a, nil, b)
	o.Observe(event.NewRelayEvent(time.Now(), event.KindCycleStarted, "", ""))

	require.True(t, a.Has(event.KindCycleStarted))
	require.True(t, b.Has(event.KindCycleStarted))
}

func TestPublisher(t *testing.T) {
	p := event.NewPubSub(8)
	defer p.Close()

	ch, cancel := p.Subscribe(nil)
	defer cancel()

	NewPublisher(p).Observe(event.NewRelayEvent(time.Now(), event.KindPullFailed, "a.log", ""))

	select {
	case e := <-ch:
		require.Equal(t, "a.log", e.(*event.RelayEvent).File)
	case <-time.After(2 * time.Second):
		require.Fail(t, "no event published")
	}
}
