package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ezshield/logrelay/encoding/json"
	"github.com/ezshield/logrelay/http/api"

	"github.com/spf13/cobra"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run a single cycle and print its report",
	Args:  cobra.NoArgs,
	RunE:  runCycle,
}

func runCycle(cmd *cobra.Command, args []string) error {
	a, err := newAPI(os.Stderr)
	if err != nil {
		return err
	}

	defer a.Destroy()

	r, err := a.RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	report := api.Report{}
	report.Unmarshal(r)

	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if r.Failed() {
		return fmt.Errorf("cycle failed")
	}

	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}
