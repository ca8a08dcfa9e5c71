package fs

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ezshield/logrelay/glob"
	"github.com/ezshield/logrelay/log"
)

// MemConfig is the config that is required for creating
// a new memory filesystem.
type MemConfig struct {
	Name   string
	Logger log.Logger // For logging, optional
}

type memFileInfo struct {
	name    string    // Full name of the file (including path)
	size    int64     // The size of the file in bytes
	dir     bool      // Whether this file represents a directory
	lastMod time.Time // The time of the last modification of the file
}

func (f *memFileInfo) Name() string {
	return f.name
}

func (f *memFileInfo) Size() int64 {
	return f.size
}

func (f *memFileInfo) ModTime() time.Time {
	return f.lastMod
}

func (f *memFileInfo) IsDir() bool {
	return f.dir
}

type memFile struct {
	memFileInfo
	data []byte
}

type memFilesystem struct {
	name string

	files map[string]*memFile
	lock  sync.RWMutex

	logger log.Logger
}

// NewMemFilesystem creates a new filesystem in memory that implements
// the Filesystem interface.
func NewMemFilesystem(config MemConfig) (Filesystem, error) {
	fs := &memFilesystem{
		name:   config.Name,
		files:  make(map[string]*memFile),
		logger: config.Logger,
	}

	if fs.logger == nil {
		fs.logger = log.New("")
	}

	fs.logger = fs.logger.WithFields(log.Fields{
		"name": fs.name,
		"type": "mem",
	})

	fs.logger.Debug().Log("Created")

	return fs, nil
}

func (fs *memFilesystem) Name() string {
	return fs.name
}

func (fs *memFilesystem) Type() string {
	return "mem"
}

func (fs *memFilesystem) Stat(path string) (FileInfo, error) {
	path = cleanPath(path)

	fs.lock.RLock()
	defer fs.lock.RUnlock()

	file, ok := fs.files[path]
	if ok {
		info := file.memFileInfo
		return &info, nil
	}

	if path == "/" || fs.isDir(path) {
		return &memFileInfo{
			name:    path,
			dir:     true,
			lastMod: time.Now(),
		}, nil
	}

	return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
}

func (fs *memFilesystem) isDir(path string) bool {
	prefix := strings.TrimSuffix(path, "/") + "/"

	for name := range fs.files {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

func (fs *memFilesystem) ReadFile(path string) ([]byte, error) {
	path = cleanPath(path)

	fs.lock.RLock()
	defer fs.lock.RUnlock()

	file, ok := fs.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
	}

	data := make([]byte, len(file.data))
	copy(data, file.data)

	return data, nil
}

func (fs *memFilesystem) WriteFile(path string, data []byte) (int64, bool, error) {
	path = cleanPath(path)

	if path == "/" {
		return -1, false, fmt.Errorf("invalid path")
	}

	file := &memFile{
		memFileInfo: memFileInfo{
			name:    path,
			size:    int64(len(data)),
			lastMod: time.Now(),
		},
		data: make([]byte, len(data)),
	}

	copy(file.data, data)

	fs.lock.Lock()
	defer fs.lock.Unlock()

	_, replace := fs.files[path]
	fs.files[path] = file

	return file.size, !replace, nil
}

// WriteFileSafe is the same as WriteFile. The whole file is swapped
// under the lock anyways.
func (fs *memFilesystem) WriteFileSafe(path string, data []byte) (int64, bool, error) {
	return fs.WriteFile(path, data)
}

func (fs *memFilesystem) MkdirAll(path string, perm os.FileMode) error {
	path = cleanPath(path)

	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if _, ok := fs.files[path]; ok {
		return ErrExist
	}

	return nil
}

func (fs *memFilesystem) Remove(path string) int64 {
	path = cleanPath(path)

	fs.lock.Lock()
	defer fs.lock.Unlock()

	file, ok := fs.files[path]
	if !ok {
		return -1
	}

	delete(fs.files, path)

	return file.size
}

func (fs *memFilesystem) List(path, pattern string) []FileInfo {
	path = cleanPath(path)
	files := []FileInfo{}

	var compiledPattern glob.Glob
	if len(pattern) != 0 {
		var err error
		compiledPattern, err = glob.Compile(pattern, '/')
		if err != nil {
			return files
		}
	}

	prefix := strings.TrimSuffix(path, "/") + "/"

	fs.lock.RLock()
	defer fs.lock.RUnlock()

	for name, file := range fs.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}

		if compiledPattern != nil && !compiledPattern.Match(name) {
			continue
		}

		info := file.memFileInfo
		files = append(files, &info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})

	return files
}
