package store

import (
	"fmt"
	"sync"

	"github.com/ezshield/logrelay/encoding/json"
	"github.com/ezshield/logrelay/io/fs"
	"github.com/ezshield/logrelay/log"
)

type JSONConfig struct {
	Filesystem fs.Filesystem
	Filepath   string // Full path to the state file
	Logger     log.Logger
}

type jsonStore struct {
	fs       fs.Filesystem
	filepath string
	logger   log.Logger

	// Mutex to serialize access to the disk
	lock sync.RWMutex
}

// StatePath is the default path of the state document.
const StatePath = "/.state"

// NewJSON returns a store that keeps the state as a single JSON document. The
// document is always replaced as a whole.
func NewJSON(config JSONConfig) (Store, error) {
	s := &jsonStore{
		fs:       config.Filesystem,
		filepath: config.Filepath,
		logger:   config.Logger,
	}

	if len(s.filepath) == 0 {
		s.filepath = StatePath
	}

	if s.fs == nil {
		return nil, fmt.Errorf("no valid filesystem provided")
	}

	if s.logger == nil {
		s.logger = log.New("")
	}

	return s, nil
}

type storeVersion struct {
	Version uint64 `json:"version"`
}

func (s *jsonStore) Load() (State, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	data := NewState()

	jsondata, err := s.fs.ReadFile(s.filepath)
	if err != nil {
		if fs.IsNotExist(err) {
			return data, nil
		}

		return data, &StateIOError{Op: "read", Path: s.filepath, Err: err}
	}

	if len(jsondata) == 0 {
		return data, nil
	}

	var v storeVersion

	if err := json.Unmarshal(jsondata, &v); err != nil {
		return data, &StateIOError{Op: "read", Path: s.filepath, Err: err}
	}

	if v.Version > Version {
		return data, &StateIOError{Op: "read", Path: s.filepath, Err: fmt.Errorf("unsupported version %d (want: %d)", v.Version, Version)}
	}

	if err := json.Unmarshal(jsondata, &data); err != nil {
		return NewState(), &StateIOError{Op: "read", Path: s.filepath, Err: err}
	}

	data.Version = Version

	if data.Files == nil {
		data.Files = map[string]*FileState{}
	}

	for name, f := range data.Files {
		if f == nil {
			data.Files[name] = &FileState{}
		}
	}

	s.logger.WithFields(log.Fields{
		"file":  s.filepath,
		"files": len(data.Files),
	}).Debug().Log("Loaded state")

	return data, nil
}

func (s *jsonStore) Store(data State) error {
	data.Version = Version

	if data.Files == nil {
		data.Files = map[string]*FileState{}
	}

	// Maps are marshalled with sorted keys
	jsondata, err := json.MarshalIndent(&data)
	if err != nil {
		return &StateIOError{Op: "write", Path: s.filepath, Err: err}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, _, err := s.fs.WriteFileSafe(s.filepath, jsondata); err != nil {
		return &StateIOError{Op: "write", Path: s.filepath, Err: err}
	}

	s.logger.WithField("file", s.filepath).Debug().Log("Stored state")

	return nil
}
