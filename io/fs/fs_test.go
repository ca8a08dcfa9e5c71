package fs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testFilesystems(t *testing.T) map[string]Filesystem {
	disk, err := NewDiskFilesystem(DiskConfig{
		Name:   "disk",
		Root:   t.TempDir() + "/siem_logs",
		Create: true,
	})
	require.NoError(t, err)

	mem, err := NewMemFilesystem(MemConfig{
		Name: "mem",
	})
	require.NoError(t, err)

	return map[string]Filesystem{
		"disk": disk,
		"mem":  mem,
	}
}

func TestWriteRead(t *testing.T) {
	for name, fs := range testFilesystems(t) {
		t.Run(name, func(t *testing.T) {
			size, created, err := fs.WriteFile("/a.log", []byte("hello"))
			require.NoError(t, err)
			require.Equal(t, int64(5), size)
			require.True(t, created)

			size, created, err = fs.WriteFile("a.log", []byte("hello world"))
			require.NoError(t, err)
			require.Equal(t, int64(11), size)
			require.False(t, created)

			data, err := fs.ReadFile("/a.log")
			require.NoError(t, err)
			require.Equal(t, []byte("hello world"), data)

			info, err := fs.Stat("a.log")
			require.NoError(t, err)
			require.Equal(t, "/a.log", info.Name())
			require.Equal(t, int64(11), info.Size())
			require.False(t, info.IsDir())
		})
	}
}

func TestWriteFileSafe(t *testing.T) {
	for name, fs := range testFilesystems(t) {
		t.Run(name, func(t *testing.T) {
			_, created, err := fs.WriteFileSafe("/.state", []byte("{}"))
			require.NoError(t, err)
			require.True(t, created)

			_, created, err = fs.WriteFileSafe("/.state", []byte("{\"version\":1}"))
			require.NoError(t, err)
			require.False(t, created)

			data, err := fs.ReadFile("/.state")
			require.NoError(t, err)
			require.Equal(t, "{\"version\":1}", string(data))

			require.Equal(t, 1, len(fs.List("/", "")))
		})
	}
}

func TestNotExist(t *testing.T) {
	for name, fs := range testFilesystems(t) {
		t.Run(name, func(t *testing.T) {
			_, err := fs.ReadFile("/missing")
			require.Error(t, err)
			require.True(t, IsNotExist(err))

			_, err = fs.Stat("/missing")
			require.True(t, IsNotExist(err))

			require.Equal(t, int64(-1), fs.Remove("/missing"))
		})
	}
}

func TestRemove(t *testing.T) {
	for name, fs := range testFilesystems(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := fs.WriteFile("/a.log", []byte("hello"))
			require.NoError(t, err)

			require.Equal(t, int64(5), fs.Remove("/a.log"))

			_, err = fs.Stat("/a.log")
			require.True(t, IsNotExist(err))
		})
	}
}

func TestList(t *testing.T) {
	for name, fs := range testFilesystems(t) {
		t.Run(name, func(t *testing.T) {
			for _, p := range []string{"/a.log", "/a.log.hdr", "/a.log.bdy", "/sub/b.log.hdr"} {
				_, _, err := fs.WriteFile(p, []byte(p))
				require.NoError(t, err)
			}

			require.Equal(t, 4, len(fs.List("/", "")))

			files := fs.List("/", "/*.hdr")
			require.Equal(t, 1, len(files))
			require.Equal(t, "/a.log.hdr", files[0].Name())

			files = fs.List("/", "**.hdr")
			require.Equal(t, 2, len(files))

			files = fs.List("/sub", "")
			require.Equal(t, 1, len(files))
			require.Equal(t, "/sub/b.log.hdr", files[0].Name())
		})
	}
}

func TestPathEscape(t *testing.T) {
	for name, fs := range testFilesystems(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := fs.WriteFile("../../escape.log", []byte("x"))
			require.NoError(t, err)

			info, err := fs.Stat("/escape.log")
			require.NoError(t, err)
			require.Equal(t, "/escape.log", info.Name())
		})
	}
}

func TestDiskRootMissing(t *testing.T) {
	_, err := NewDiskFilesystem(DiskConfig{
		Root:   t.TempDir() + "/missing",
		Create: false,
	})
	require.Error(t, err)
}
