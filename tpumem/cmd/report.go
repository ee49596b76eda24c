package cmd

import (
	"github.com/azaharalam/PPT-TPU-MEM/datarecording"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <db.sqlite3>",
	Short: "Print the layer summaries recorded in a database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		entries, err := datarecording.ReadSummaries(cmd.Context(), reader)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			return errors.Newf("no summaries recorded in %s", args[0])
		}

		rows := make([]summaryRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, summaryRow{Run: e.Run, Entry: e})
		}

		renderSummaryTable(cmd.OutOrStdout(), rows, true)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
