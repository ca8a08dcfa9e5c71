package store

import (
	"fmt"

	"github.com/ezshield/logrelay/config"
	"github.com/ezshield/logrelay/encoding/json"
	"github.com/ezshield/logrelay/io/fs"
)

type jsonStore struct {
	fs   fs.Filesystem
	path string

	data *config.Config
}

// NewJSON will read the JSON config file from the given path of the filesystem. Values
// that are missing in the file keep their default. If the file doesn't exist, the
// default config is used. The file is only written by Set.
func NewJSON(f fs.Filesystem, path string) (Store, error) {
	c := &jsonStore{
		fs:   f,
		path: path,
	}

	if c.fs == nil {
		return nil, fmt.Errorf("no valid filesystem provided")
	}

	if len(c.path) == 0 {
		c.path = "/logrelay.json"
	}

	c.data = config.New()

	if err := c.load(c.data); err != nil {
		return nil, fmt.Errorf("failed to read JSON from '%s': %w", c.path, err)
	}

	return c, nil
}

func (c *jsonStore) Get() *config.Config {
	return c.data.Clone()
}

func (c *jsonStore) Set(d *config.Config) error {
	d.Validate(true)

	if d.HasErrors() {
		return fmt.Errorf("configuration data has errors after validation")
	}

	data := d.Clone()

	if err := c.store(data); err != nil {
		return fmt.Errorf("failed to write JSON to '%s': %w", c.path, err)
	}

	c.data = data

	return nil
}

func (c *jsonStore) load(cfg *config.Config) error {
	jsondata, err := c.fs.ReadFile(c.path)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil
		}

		return err
	}

	if len(jsondata) == 0 {
		return nil
	}

	version := DataVersion{}

	if err := json.Unmarshal(jsondata, &version); err != nil {
		return err
	}

	if version.Version != 0 && version.Version != cfg.Version {
		return fmt.Errorf("unknown configuration layout version %d", version.Version)
	}

	if err := json.Unmarshal(jsondata, &cfg.Data); err != nil {
		return err
	}

	cfg.UpdatedAt = cfg.CreatedAt

	return nil
}

func (c *jsonStore) store(data *config.Config) error {
	jsondata, err := json.MarshalIndent(data)
	if err != nil {
		return err
	}

	_, _, err = c.fs.WriteFileSafe(c.path, jsondata)

	return err
}
