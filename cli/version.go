package cli

import (
	"fmt"

	"github.com/ezshield/logrelay/app"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()

		fmt.Fprintf(w, "%s %s\n", app.Name, app.Version.String())

		if len(app.Commit) != 0 {
			fmt.Fprintf(w, "  Commit: %s (%s)\n", app.Commit, app.Branch)
		}

		if len(app.Build) != 0 {
			fmt.Fprintf(w, "  Build: %s\n", app.Build)
		}

		fmt.Fprintf(w, "  OS/Arch: %s\n", app.Arch)
		fmt.Fprintf(w, "  Go: %s\n", app.Compiler)
	},
}
