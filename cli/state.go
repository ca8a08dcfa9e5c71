package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ezshield/logrelay/http/api"
	"github.com/ezshield/logrelay/relay/store"

	"github.com/lestrrat-go/strftime"
	"github.com/spf13/cobra"
)

var stateFlags struct {
	json       bool
	timeFormat string
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the progress of all known log files",
	Args:  cobra.NoArgs,
	RunE:  runState,
}

func init() {
	stateCmd.Flags().BoolVar(&stateFlags.json, "json", false, "print the state as JSON")
	stateCmd.Flags().StringVar(&stateFlags.timeFormat, "time-format", "%Y-%m-%d %H:%M:%S", "strftime pattern for the times")
}

func runState(cmd *cobra.Command, args []string) error {
	a, err := newAPI(io.Discard)
	if err != nil {
		return err
	}

	defer a.Destroy()

	state, err := a.State()
	if err != nil {
		return err
	}

	cfg := a.Config()

	if stateFlags.json {
		s := api.State{}
		s.Unmarshal(state, cfg.Pull.RetryCount, cfg.Push.RetryCount)

		return printJSON(cmd.OutOrStdout(), s)
	}

	format, err := strftime.New(stateFlags.timeFormat)
	if err != nil {
		return fmt.Errorf("invalid time format: %w", err)
	}

	return printState(cmd.OutOrStdout(), state, cfg.Pull.RetryCount, cfg.Push.RetryCount, format)
}

func printState(w io.Writer, state store.State, pullRetryLimit, pushRetryLimit int, format *strftime.Strftime) error {
	formatTime := func(t *time.Time) string {
		if t == nil {
			return "-"
		}

		return format.FormatString(t.Local())
	}

	fmt.Fprintf(w, "Startup:    %s\n", formatTime(state.StartupTime))
	fmt.Fprintf(w, "Last cycle: %s\n", formatTime(state.LastCycleTime))

	if len(state.LastCycleError) != 0 {
		fmt.Fprintf(w, "Last error: %s\n", state.LastCycleError)
	}

	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "FILE\tSTATUS\tPULLS\tPULLED\tPUSHES\tPUSHED\tERROR")

	for _, name := range state.Names() {
		f := state.Files[name]

		lastError := f.Push.LastError
		if len(lastError) == 0 {
			lastError = f.Pull.LastError
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			name,
			f.Status(pullRetryLimit, pushRetryLimit),
			f.Pull.Count,
			formatTime(f.Pull.Success),
			f.Push.Count,
			formatTime(f.Push.Success),
			lastError,
		)
	}

	return tw.Flush()
}
