package cmd

import (
	"fmt"
	"os"

	"github.com/azaharalam/PPT-TPU-MEM/logger"
	"github.com/azaharalam/PPT-TPU-MEM/trace"
	"github.com/spf13/cobra"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <parent_dir>",
	Short: "Turn the DRAM traces of every layer into access tables.",
	Long: "`prepare <parent_dir>` merges the IFMAP, FILTER, and OFMAP DRAM " +
		"traces of every layer* directory under parent_dir by cycle, writes " +
		"UNIFIED_TRACE.csv, and interleaves the accesses by PE row into " +
		"UNIFIED_TRACE.npy.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolveSettings(cmd.Flags(), arrayFlags, traceFlags)
		if err != nil {
			return err
		}

		log := logger.NewLogger(logLevel(cmd), "trace")
		processor := trace.NewProcessor(s.Trace, log)

		outputs, err := processor.Run(args[0])
		if err != nil {
			return err
		}

		for _, out := range outputs {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}

		log.Infof("prepared %d layers", len(outputs))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	addSettingFlags(prepareCmd.Flags(), arrayFlags, traceFlags)
}

// logLevel returns the --log-level flag, or TPUMEM_LOG_LEVEL if the flag is
// not set.
func logLevel(cmd *cobra.Command) string {
	level, _ := cmd.Flags().GetString("log-level")

	if !cmd.Flags().Changed("log-level") {
		if env, ok := os.LookupEnv(envName("log-level")); ok {
			level = env
		}
	}

	return level
}
