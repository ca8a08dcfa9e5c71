package store

import (
	"errors"
	"testing"
	"time"

	"github.com/ezshield/logrelay/io/fs"

	"github.com/stretchr/testify/require"
)

func getFS(t *testing.T) fs.Filesystem {
	memfs, err := fs.NewMemFilesystem(fs.MemConfig{})
	require.NoError(t, err)

	return memfs
}

func TestNew(t *testing.T) {
	_, err := NewJSON(JSONConfig{})
	require.Error(t, err)

	s, err := NewJSON(JSONConfig{Filesystem: getFS(t)})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestLoadMissing(t *testing.T) {
	s, err := NewJSON(JSONConfig{Filesystem: getFS(t)})
	require.NoError(t, err)

	data, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, Version, data.Version)
	require.Empty(t, data.Files)
	require.NotNil(t, data.Files)
	require.Nil(t, data.StartupTime)
}

func TestStoreLoad(t *testing.T) {
	memfs := getFS(t)

	s, err := NewJSON(JSONConfig{Filesystem: memfs})
	require.NoError(t, err)

	now := time.Unix(1474886387, 0).UTC()

	data := NewState()
	data.StartupTime = &now
	data.LastCycleTime = &now
	data.LastCycleError = "index: connection refused"

	f := data.File("b.log")
	f.Pull.Begin(now)
	f.Pull.Fail(errors.New("boom"))

	f = data.File("a.log")
	f.Pull.Begin(now)
	f.Pull.Succeed(now.Add(time.Second))
	f.Push.Begin(now.Add(2 * time.Second))

	require.NoError(t, s.Store(data))

	_, err = memfs.Stat("/.state")
	require.NoError(t, err)

	data2, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, data, data2)
	require.Equal(t, []string{"a.log", "b.log"}, data2.Names())
	require.Equal(t, 1, data2.Files["b.log"].Pull.Count)
	require.Equal(t, "boom", data2.Files["b.log"].Pull.LastError)
	require.False(t, data2.Files["b.log"].Pull.Succeeded())
	require.True(t, data2.Files["a.log"].Pull.Succeeded())
}

func TestStoreOverwrite(t *testing.T) {
	memfs := getFS(t)

	s, err := NewJSON(JSONConfig{Filesystem: memfs, Filepath: "/state.json"})
	require.NoError(t, err)

	data := NewState()
	data.File("a.log").Pull.Count = 3
	require.NoError(t, s.Store(data))

	data = NewState()
	data.File("b.log")
	require.NoError(t, s.Store(data))

	data2, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"b.log"}, data2.Names())
	require.Len(t, memfs.List("/", ""), 1)
}

func TestLoadTolerant(t *testing.T) {
	memfs := getFS(t)
	memfs.WriteFile("/.state", []byte(`{
    "startupTime": "2016-09-26T10:39:47Z",
    "somethingNew": true,
    "files": {
        "a.log": {
            "pull": {"retryCount": 2, "tryTime": "2016-09-26T10:40:00Z", "extra": 1},
            "push": {}
        },
        "b.log": null
    }
}`))

	s, err := NewJSON(JSONConfig{Filesystem: memfs})
	require.NoError(t, err)

	data, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, Version, data.Version)
	require.NotNil(t, data.StartupTime)
	require.Equal(t, 2, data.Files["a.log"].Pull.Count)
	require.NotNil(t, data.Files["b.log"])
}

func TestLoadInvalid(t *testing.T) {
	memfs := getFS(t)
	memfs.WriteFile("/.state", []byte("{\n\"files\": [\n}"))

	s, err := NewJSON(JSONConfig{Filesystem: memfs})
	require.NoError(t, err)

	_, err = s.Load()
	require.Error(t, err)

	var ioerr *StateIOError
	require.ErrorAs(t, err, &ioerr)
	require.Equal(t, "read", ioerr.Op)
	require.Equal(t, "/.state", ioerr.Path)
}

func TestLoadNewerVersion(t *testing.T) {
	memfs := getFS(t)
	memfs.WriteFile("/.state", []byte(`{"version": 99}`))

	s, err := NewJSON(JSONConfig{Filesystem: memfs})
	require.NoError(t, err)

	_, err = s.Load()
	require.ErrorContains(t, err, "unsupported version 99")
}

func TestClone(t *testing.T) {
	now := time.Now()

	data := NewState()
	data.StartupTime = &now
	data.File("a.log").Pull.Begin(now)

	c := data.Clone()
	require.Equal(t, data, c)

	c.File("a.log").Pull.Count = 10
	c.File("b.log")
	*c.StartupTime = now.Add(time.Hour)

	require.Equal(t, 1, data.Files["a.log"].Pull.Count)
	require.Len(t, data.Files, 1)
	require.Equal(t, now, *data.StartupTime)
}

func TestSettled(t *testing.T) {
	f := &FileState{}
	require.False(t, f.Settled(3))

	f.Push.Count = 3
	require.True(t, f.Settled(3))

	f = &FileState{}
	f.Push.Begin(time.Now())
	require.True(t, f.Settled(3))

	require.True(t, (&FileState{}).Settled(0))
}

func TestDummy(t *testing.T) {
	s := NewDummy(nil)

	data, err := s.Load()
	require.NoError(t, err)

	data.File("a.log").Pull.Count = 1
	require.NoError(t, s.Store(data))

	data.File("a.log").Pull.Count = 2

	data2, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, 1, data2.Files["a.log"].Pull.Count)

	s = NewDummy(errors.New("disk full"))
	err = s.Store(data)

	var ioerr *StateIOError
	require.ErrorAs(t, err, &ioerr)
}

func TestStatus(t *testing.T) {
	now := time.Now()

	f := &FileState{}
	require.Equal(t, "pending", f.Status(3, 3))

	f.Pull.Begin(now)
	f.Pull.Fail(errors.New("not found"))
	require.Equal(t, "pull_failed", f.Status(3, 3))
	require.Equal(t, "pull_exhausted", f.Status(1, 3))

	f.Pull.Succeed(now)
	require.Equal(t, "pulled", f.Status(1, 3))

	f.Push.Begin(now)
	require.Equal(t, "push_failed", f.Status(1, 3))

	f.Push.Succeed(now)
	require.Equal(t, "pushed", f.Status(1, 3))
}
