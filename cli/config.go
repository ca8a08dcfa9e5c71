package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/ezshield/logrelay/app/api"
	configstore "github.com/ezshield/logrelay/config/store"
	"github.com/ezshield/logrelay/io/fs"
	"github.com/ezshield/logrelay/log"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or save the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSaveCmd = &cobra.Command{
	Use:   "save [path]",
	Short: "Save the effective configuration as JSON config file",
	Long: `Save the effective configuration, i.e. the defaults, the config file,
the connector settings file, the --set values and the environment,
to a JSON config file. Without a path, the config file is replaced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigSave,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	opts, err := options(nil)
	if err != nil {
		return err
	}

	logger := log.New("Config").WithOutput(log.NewConsoleWriter(cmd.ErrOrStderr(), log.Lwarn, false))

	cfg, err := api.Load(opts, logger)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tVALUE\tENV\tOVERRIDE")

	for _, v := range cfg.Variables() {
		override := ""
		if v.Merged {
			override = "yes"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, v.Value, v.EnvName, override)
	}

	return tw.Flush()
}

func runConfigSave(cmd *cobra.Command, args []string) error {
	opts, err := options(nil)
	if err != nil {
		return err
	}

	logger := log.New("Config").WithOutput(log.NewConsoleWriter(cmd.ErrOrStderr(), log.Lwarn, false))

	cfg, err := api.Load(opts, logger)
	if err != nil {
		return err
	}

	path := opts.ConfigPath
	if len(args) != 0 {
		path = args[0]
	}

	if len(path) == 0 {
		path = filepath.Join("config", "config.json")
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0740); err != nil {
		return err
	}

	rootfs, err := fs.NewDiskFilesystem(fs.DiskConfig{
		Root: filepath.Dir(path),
	})
	if err != nil {
		return err
	}

	store, err := configstore.NewJSON(rootfs, "/"+filepath.Base(path))
	if err != nil {
		return err
	}

	if err := store.Set(cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved config to %s\n", path)

	return nil
}
