package api

import (
	"github.com/ezshield/logrelay/config/vars"
)

// ConfigVariable is a single configuration value. Secrets are disguised.
type ConfigVariable struct {
	Name        string `json:"name" jsonschema:"minLength=1"`
	Value       string `json:"value"`
	EnvName     string `json:"env_name,omitempty"`
	Description string `json:"description"`
	Merged      bool   `json:"merged"` // Whether the value has been set by an environment variable
}

func (v *ConfigVariable) Unmarshal(variable vars.Variable) {
	v.Name = variable.Name
	v.Value = variable.Value
	v.EnvName = variable.EnvName
	v.Description = variable.Description
	v.Merged = variable.Merged
}
