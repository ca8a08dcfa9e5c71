package connector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ezshield/logrelay/config"

	"github.com/stretchr/testify/require"
)

const portalSettings = `APIID=1234
APIKEY=0f1e2d3c-aaaa-zzzz
PROCESS_DIR=/var/lib/logrelay
BASEURL=https://logs1.example.com/1234_5678/
USEPROXY=YES
PROXYSERVER=proxy.local:3128
SAVE_LOCALLY=NO
SYSLOG_ENABLE=NO
`

func TestParseDefaultSection(t *testing.T) {
	s, err := Parse([]byte(portalSettings))
	require.NoError(t, err)

	require.Equal(t, "1234", s.APIID)
	require.Equal(t, "0f1e2d3c-aaaa-zzzz", s.APIKey)
	require.Equal(t, "/var/lib/logrelay", s.ProcessDir)
	require.Equal(t, "https://logs1.example.com/1234_5678/", s.BaseURL)
	require.Equal(t, "YES", s.UseProxy)
	require.Equal(t, "proxy.local:3128", s.ProxyServer)
}

func TestParseSettingsSection(t *testing.T) {
	s, err := Parse([]byte("ApiId=1\n\n[Settings]\nApiId=2\nBaseUrl=https://logs.example.com/\n"))
	require.NoError(t, err)

	require.Equal(t, "2", s.APIID)
	require.Equal(t, "https://logs.example.com/", s.BaseURL)
}

func TestApply(t *testing.T) {
	s, err := Parse([]byte(portalSettings))
	require.NoError(t, err)

	cfg := config.New()
	ignored := s.Apply(cfg)

	require.Empty(t, ignored)
	require.Equal(t, "1234", cfg.Connector.APIID)
	require.Equal(t, "0f1e2d3c-aaaa-zzzz", cfg.Connector.APIKey)
	require.Equal(t, "/var/lib/logrelay", cfg.Connector.ProcessDir)
	require.Equal(t, "http://proxy.local:3128", cfg.ProxyURL)
	require.False(t, cfg.SaveArtifacts)
}

func TestApplyKeepsDefaults(t *testing.T) {
	s, err := Parse([]byte("USEPROXY=NO\nPROXYSERVER=proxy.local:3128\nSYSLOG_ENABLE=YES\n"))
	require.NoError(t, err)

	cfg := config.New()
	cfg.ProxyURL = "http://other:8080"

	ignored := s.Apply(cfg)

	require.Equal(t, []string{"Syslog_Enable"}, ignored)
	require.Equal(t, "", cfg.ProxyURL)
	require.Equal(t, "./siem_logs", cfg.Connector.ProcessDir)
	require.True(t, cfg.SaveArtifacts)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.Config")
	require.NoError(t, os.WriteFile(path, []byte(portalSettings), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "1234", s.APIID)

	_, err = Load(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
