package api

import (
	"strings"
	"time"

	"github.com/ezshield/logrelay/relay"
	"github.com/ezshield/logrelay/relay/store"
)

// FileInfo represents a file in the process directory. Kind tells what the
// file is and File names the log file an artifact belongs to.
type FileInfo struct {
	Name    string `json:"name" jsonschema:"minLength=1"`
	Kind    string `json:"kind" jsonschema:"enum=state,enum=index,enum=raw,enum=header,enum=body"`
	File    string `json:"file,omitempty"`
	Size    int64  `json:"size_bytes" jsonschema:"minimum=0"`
	LastMod int64  `json:"last_modified" jsonschema:"minimum=0"`
}

// NewFileInfo classifies the file at path in the process directory.
func NewFileInfo(path string, size int64, lastMod time.Time) FileInfo {
	info := FileInfo{
		Name:    path,
		Size:    size,
		LastMod: lastMod.Unix(),
	}

	name := strings.TrimPrefix(path, "/")

	switch {
	case path == store.StatePath:
		info.Kind = "state"
	case name == relay.IndexFile:
		info.Kind = "index"
	case strings.HasSuffix(name, ".hdr"):
		info.Kind = "header"
		info.File = strings.TrimSuffix(name, ".hdr")
	case strings.HasSuffix(name, ".bdy"):
		info.Kind = "body"
		info.File = strings.TrimSuffix(name, ".bdy")
	default:
		info.Kind = "raw"
		info.File = name
	}

	return info
}
