package store

import "github.com/ezshield/logrelay/config"

// Store is a store for the configuration data.
type Store interface {
	// Get the current configuration.
	Get() *config.Config

	// Set a new configuration for persistence.
	Set(data *config.Config) error
}

type DataVersion struct {
	Version int64 `json:"version"`
}
