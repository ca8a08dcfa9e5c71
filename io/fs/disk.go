package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ezshield/logrelay/glob"
	"github.com/ezshield/logrelay/log"
)

// DiskConfig is the config required to create a new disk
// filesystem.
type DiskConfig struct {
	// Name of the filesystem
	Name string

	// Root is the path to the directory all files are stored in
	Root string

	// Create the root directory if it doesn't exist
	Create bool

	// For logging, optional
	Logger log.Logger
}

// diskFileInfo implements the FileInfo interface
type diskFileInfo struct {
	name  string
	finfo os.FileInfo
}

func (fi *diskFileInfo) Name() string {
	return fi.name
}

func (fi *diskFileInfo) Size() int64 {
	return fi.finfo.Size()
}

func (fi *diskFileInfo) ModTime() time.Time {
	return fi.finfo.ModTime()
}

func (fi *diskFileInfo) IsDir() bool {
	return fi.finfo.IsDir()
}

// diskFilesystem implements the Filesystem interface
type diskFilesystem struct {
	name string
	root string

	logger log.Logger
}

// NewDiskFilesystem returns a new filesystem that is backed by the directory
// config.Root.
func NewDiskFilesystem(config DiskConfig) (Filesystem, error) {
	fs := &diskFilesystem{
		name:   config.Name,
		logger: config.Logger,
	}

	if fs.logger == nil {
		fs.logger = log.New("")
	}

	if len(config.Root) == 0 {
		return nil, fmt.Errorf("invalid root path provided")
	}

	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, err
	}

	finfo, err := os.Stat(root)
	if err != nil {
		if !os.IsNotExist(err) || !config.Create {
			return nil, fmt.Errorf("the provided root path '%s' doesn't exist: %w", root, err)
		}

		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("creating the root path '%s' failed: %w", root, err)
		}

		fs.logger.Debug().WithField("path", root).Log("Created root directory")
	} else if !finfo.IsDir() {
		return nil, fmt.Errorf("the provided root path '%s' must be a directory", root)
	}

	fs.root = root
	fs.logger = fs.logger.WithFields(log.Fields{
		"name": fs.name,
		"type": "disk",
		"root": fs.root,
	})

	return fs, nil
}

func (fs *diskFilesystem) Name() string {
	return fs.name
}

func (fs *diskFilesystem) Type() string {
	return "disk"
}

func (fs *diskFilesystem) abs(path string) string {
	return filepath.Join(fs.root, filepath.FromSlash(cleanPath(path)))
}

func (fs *diskFilesystem) Stat(path string) (FileInfo, error) {
	path = cleanPath(path)

	finfo, err := os.Stat(fs.abs(path))
	if err != nil {
		return nil, err
	}

	return &diskFileInfo{
		name:  path,
		finfo: finfo,
	}, nil
}

func (fs *diskFilesystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(fs.abs(path))
}

func (fs *diskFilesystem) WriteFile(path string, data []byte) (int64, bool, error) {
	path = fs.abs(path)

	replace := true

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return -1, false, fmt.Errorf("creating file failed: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			return -1, false, fmt.Errorf("creating file failed: %w", err)
		}

		replace = false
	}

	defer f.Close()

	size, err := f.Write(data)
	if err != nil {
		return -1, false, fmt.Errorf("writing data failed: %w", err)
	}

	return int64(size), !replace, nil
}

func (fs *diskFilesystem) WriteFileSafe(path string, data []byte) (int64, bool, error) {
	path = fs.abs(path)
	dir, filename := filepath.Split(path)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return -1, false, fmt.Errorf("creating file failed: %w", err)
	}

	tmpfile, err := os.CreateTemp(dir, filename)
	if err != nil {
		return -1, false, err
	}

	defer os.Remove(tmpfile.Name())

	size, err := tmpfile.Write(data)
	if err != nil {
		tmpfile.Close()
		return -1, false, err
	}

	if err := tmpfile.Sync(); err != nil {
		tmpfile.Close()
		return -1, false, err
	}

	if err := tmpfile.Close(); err != nil {
		return -1, false, err
	}

	replace := true
	if _, err := os.Stat(path); err != nil {
		replace = false
	}

	if err := os.Rename(tmpfile.Name(), path); err != nil {
		return -1, false, err
	}

	return int64(size), !replace, nil
}

func (fs *diskFilesystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(fs.abs(path), perm)
}

func (fs *diskFilesystem) Remove(path string) int64 {
	path = fs.abs(path)

	finfo, err := os.Stat(path)
	if err != nil {
		return -1
	}

	size := finfo.Size()

	if err := os.Remove(path); err != nil {
		fs.logger.WithError(err).WithField("path", path).Log("Failed to remove file")
		return -1
	}

	return size
}

func (fs *diskFilesystem) List(path, pattern string) []FileInfo {
	files := []FileInfo{}

	var compiledPattern glob.Glob
	if len(pattern) != 0 {
		var err error
		compiledPattern, err = glob.Compile(pattern, '/')
		if err != nil {
			return files
		}
	}

	filepath.Walk(fs.abs(path), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		name := filepath.ToSlash(strings.TrimPrefix(path, fs.root))
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}

		if compiledPattern != nil && !compiledPattern.Match(name) {
			return nil
		}

		files = append(files, &diskFileInfo{
			name:  name,
			finfo: info,
		})

		return nil
	})

	return files
}
