// Package connector reads the connector settings file as it is provided by the
// log-management portal. It's an INI file with the settings either in the
// default section or in a [Settings] section. Key names are not case sensitive.
package connector

import (
	"fmt"
	"strings"

	"github.com/ezshield/logrelay/config"

	"gopkg.in/ini.v1"
)

// Settings are the values from the connector settings file. Empty
// values are not present in the file.
type Settings struct {
	APIID       string
	APIKey      string
	ProcessDir  string
	BaseURL     string
	UseProxy    string
	ProxyServer string
	SaveLocally string

	// Settings for forwarding and TLS that are not supported.
	SyslogEnable    string
	SyslogAddress   string
	SyslogPort      string
	UseCustomCAFile string
	CustomCAFile    string
}

var keys = map[string]func(s *Settings) *string{
	"apiid":              func(s *Settings) *string { return &s.APIID },
	"apikey":             func(s *Settings) *string { return &s.APIKey },
	"process_dir":        func(s *Settings) *string { return &s.ProcessDir },
	"baseurl":            func(s *Settings) *string { return &s.BaseURL },
	"useproxy":           func(s *Settings) *string { return &s.UseProxy },
	"proxyserver":        func(s *Settings) *string { return &s.ProxyServer },
	"save_locally":       func(s *Settings) *string { return &s.SaveLocally },
	"syslog_enable":      func(s *Settings) *string { return &s.SyslogEnable },
	"syslog_address":     func(s *Settings) *string { return &s.SyslogAddress },
	"syslog_port":        func(s *Settings) *string { return &s.SyslogPort },
	"use_custom_ca_file": func(s *Settings) *string { return &s.UseCustomCAFile },
	"custom_ca_file":     func(s *Settings) *string { return &s.CustomCAFile },
}

// Load reads the settings from the file at path.
func Load(path string) (*Settings, error) {
	return load(path)
}

// Parse reads the settings from data.
func Parse(data []byte) (*Settings, error) {
	return load(data)
}

func load(source interface{}) (*Settings, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:         true,
		IgnoreInlineComment: true,
	}, source)
	if err != nil {
		return nil, fmt.Errorf("invalid connector settings: %w", err)
	}

	s := &Settings{}

	for _, name := range []string{ini.DefaultSection, "settings"} {
		section, err := file.GetSection(name)
		if err != nil {
			continue
		}

		for _, key := range section.Keys() {
			field, ok := keys[strings.ReplaceAll(key.Name(), " ", "_")]
			if !ok {
				continue
			}

			*field(s) = strings.TrimSpace(key.String())
		}
	}

	return s, nil
}

func isYes(value string) bool {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "1", "on":
		return true
	}

	return false
}

// Apply writes the present settings to cfg. It returns the names of the
// present settings that are not supported.
func (s *Settings) Apply(cfg *config.Config) []string {
	if len(s.APIID) != 0 {
		cfg.Connector.APIID = s.APIID
	}

	if len(s.APIKey) != 0 {
		cfg.Connector.APIKey = s.APIKey
	}

	if len(s.BaseURL) != 0 {
		cfg.Connector.BaseURL = s.BaseURL
	}

	if len(s.ProcessDir) != 0 {
		cfg.Connector.ProcessDir = s.ProcessDir
	}

	if len(s.UseProxy) != 0 {
		if isYes(s.UseProxy) && len(s.ProxyServer) != 0 {
			proxy := s.ProxyServer
			if !strings.Contains(proxy, "://") {
				proxy = "http://" + proxy
			}

			cfg.ProxyURL = proxy
		} else {
			cfg.ProxyURL = ""
		}
	}

	if len(s.SaveLocally) != 0 {
		cfg.SaveArtifacts = isYes(s.SaveLocally)
	}

	ignored := []string{}

	if isYes(s.SyslogEnable) {
		ignored = append(ignored, "Syslog_Enable")
	}

	if isYes(s.UseCustomCAFile) {
		ignored = append(ignored, "Use_Custom_CA_File")
	}

	return ignored
}
