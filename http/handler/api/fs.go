package api

import (
	"net/http"
	"sort"

	"github.com/ezshield/logrelay/http/api"
	"github.com/ezshield/logrelay/http/handler/util"
	"github.com/ezshield/logrelay/io/fs"

	"github.com/labstack/echo/v4"
)

// The FSHandler type provides handler functions for reading the files of
// the process directory.
type FSHandler struct {
	fs fs.Filesystem
}

func NewFS(f fs.Filesystem) *FSHandler {
	return &FSHandler{
		fs: f,
	}
}

// List lists all files in the process directory
// @Summary List the files of the process directory
// @ID fs-list
// @Produce json
// @Param glob query string false "glob pattern for file names"
// @Param sort query string false "none, name, size, lastmod"
// @Param order query string false "asc, desc"
// @Success 200 {array} api.FileInfo
// @Router /api/v1/fs [get]
func (h *FSHandler) List(c echo.Context) error {
	pattern := util.DefaultQuery(c, "glob", "")
	sortby := util.DefaultQuery(c, "sort", "none")
	order := util.DefaultQuery(c, "order", "asc")

	files := h.fs.List("/", pattern)

	var less func(i, j int) bool

	switch sortby {
	case "name":
		less = func(i, j int) bool { return files[i].Name() < files[j].Name() }
	case "size":
		less = func(i, j int) bool { return files[i].Size() < files[j].Size() }
	case "lastmod":
		less = func(i, j int) bool { return files[i].ModTime().Before(files[j].ModTime()) }
	}

	if less != nil {
		if order == "desc" {
			sort.SliceStable(files, func(i, j int) bool { return less(j, i) })
		} else {
			sort.SliceStable(files, less)
		}
	}

	list := []api.FileInfo{}

	for _, f := range files {
		list = append(list, api.NewFileInfo(f.Name(), f.Size(), f.ModTime()))
	}

	return c.JSON(http.StatusOK, list)
}

// Get returns a file from the process directory
// @Summary Fetch a file from the process directory
// @ID fs-get
// @Produce application/data
// @Param path path string true "Path to file"
// @Success 200 {file} byte
// @Failure 404 {object} api.Error
// @Router /api/v1/fs/{path} [get]
func (h *FSHandler) Get(c echo.Context) error {
	path := util.PathWildcardParam(c)

	data, err := h.fs.ReadFile(path)
	if err != nil {
		if fs.IsNotExist(err) {
			return api.Err(http.StatusNotFound, "", "file not found: %s", path)
		}

		return api.ErrFrom(http.StatusInternalServerError, err)
	}

	return c.Blob(http.StatusOK, "application/data", data)
}
