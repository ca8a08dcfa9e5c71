// Package cli implements the logrelay commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezshield/logrelay/app"
	"github.com/ezshield/logrelay/app/api"

	"github.com/spf13/cobra"
)

var flags struct {
	config   string
	settings string
	set      []string
}

var rootCmd = &cobra.Command{
	Use:   app.Name,
	Short: "Relay the log files of a log-management account",
	Long: `logrelay polls the index of a log-management account, pulls every
listed log file, decodes it and pushes its lines to a target. The
progress of every file is kept in the process directory such that
a restart resumes where it left off.

Without a command, the relay runs until it is interrupted.`,
	SilenceUsage: true,
	RunE:         runRun,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "path to the JSON config file (env LOGRELAY_CONFIGFILE)")
	rootCmd.PersistentFlags().StringVarP(&flags.settings, "settings", "s", "", "path to the connector settings file")
	rootCmd.PersistentFlags().StringArrayVar(&flags.set, "set", nil, "set a config value, e.g. --set pull.retry_count=5")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(versionCmd)
}

// findConfigfile returns the path to the config file. Without a flag and
// without the environment variable LOGRELAY_CONFIGFILE, the standard
// locations are probed:
// - os.UserConfigDir() + /logrelay/config.json
// - ./config/config.json
// An empty path is returned if none of them exists.
func findConfigfile() string {
	if len(flags.config) != 0 {
		return flags.config
	}

	if configfile := os.Getenv("LOGRELAY_CONFIGFILE"); len(configfile) != 0 {
		return configfile
	}

	locations := []string{}

	if dir, err := os.UserConfigDir(); err == nil {
		locations = append(locations, filepath.Join(dir, app.Name, "config.json"))
	}

	locations = append(locations, filepath.Join("config", "config.json"))

	for _, path := range locations {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		return path
	}

	return ""
}

func options(logwriter io.Writer) (api.Options, error) {
	set := map[string]string{}

	for _, kv := range flags.set {
		name, value, found := strings.Cut(kv, "=")
		if !found || len(name) == 0 {
			return api.Options{}, fmt.Errorf("invalid --set %q, expecting name=value", kv)
		}

		set[strings.TrimSpace(name)] = value
	}

	return api.Options{
		ConfigPath:   findConfigfile(),
		SettingsPath: flags.settings,
		Set:          set,
		LogWriter:    logwriter,
	}, nil
}

func newAPI(logwriter io.Writer) (api.API, error) {
	opts, err := options(logwriter)
	if err != nil {
		return nil, err
	}

	return api.New(opts)
}
