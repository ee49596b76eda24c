package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/azaharalam/PPT-TPU-MEM/batch"
	"github.com/azaharalam/PPT-TPU-MEM/datarecording"
	"github.com/azaharalam/PPT-TPU-MEM/hooking"
	"github.com/azaharalam/PPT-TPU-MEM/logger"
	"github.com/azaharalam/PPT-TPU-MEM/monitoring"
	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
	"github.com/azaharalam/PPT-TPU-MEM/trace"
	"github.com/azaharalam/PPT-TPU-MEM/tracing"
	"github.com/cockroachdb/errors"
	"github.com/op/go-logging"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <parent_dir | file.npy...>",
	Short: "Estimate the buffer behavior of every layer.",
	Long: "`estimate <parent_dir>` estimates the UNIFIED_TRACE.npy access " +
		"table of every layer* directory under parent_dir. " +
		"`estimate file.npy...` estimates the given access tables.",
	Args: cobra.MinimumNArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	addEstimateFlags(estimateCmd.Flags())
}

func addEstimateFlags(fs *pflag.FlagSet) {
	addSettingFlags(fs, arrayFlags, engineFlags)

	fs.Int("workers", 4, "Number of layers estimated at the same time.")
	fs.String("db", "",
		"Record the results into this SQLite database (without .sqlite3).")
	fs.Bool("trace-accesses", false,
		"Trace every access into the database, or to stderr without --db.")
	fs.Int("trace-every", 1, "Only trace one access out of this many.")
	fs.Bool("monitor", false, "Serve the progress over HTTP.")
	fs.Int("monitor-port", 0, "Port of the monitor. 0 picks a free port.")
	fs.Bool("open-monitor", false, "Open the monitor in a browser.")
}

type estimateOptions struct {
	workers       int
	db            string
	traceAccesses bool
	traceEvery    int
	monitor       bool
	monitorPort   int
	openMonitor   bool
}

func readEstimateOptions(cmd *cobra.Command) (estimateOptions, error) {
	fs := cmd.Flags()

	for _, name := range []string{
		"workers", "db", "trace-accesses", "trace-every",
		"monitor", "monitor-port", "open-monitor",
	} {
		if fs.Changed(name) {
			continue
		}

		if value, ok := os.LookupEnv(envName(name)); ok {
			if err := fs.Set(name, value); err != nil {
				return estimateOptions{}, errors.Wrapf(err,
					"environment %s", envName(name))
			}
		}
	}

	var o estimateOptions

	o.workers, _ = fs.GetInt("workers")
	o.db, _ = fs.GetString("db")
	o.traceAccesses, _ = fs.GetBool("trace-accesses")
	o.traceEvery, _ = fs.GetInt("trace-every")
	o.monitor, _ = fs.GetBool("monitor")
	o.monitorPort, _ = fs.GetInt("monitor-port")
	o.openMonitor, _ = fs.GetBool("open-monitor")

	return o, nil
}

func runEstimate(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cmd.Flags(), arrayFlags, engineFlags)
	if err != nil {
		return err
	}

	strategy, err := s.strategy()
	if err != nil {
		return err
	}

	opts, err := readEstimateOptions(cmd)
	if err != nil {
		return err
	}

	level := logLevel(cmd)
	log := logger.NewLogger(level, "cli")

	jobs, err := collectJobs(args, logger.NewLogger(level, "batch"))
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		return errors.New("no access tables found")
	}

	engine := reusedistance.MakeBuilder().
		WithConfig(s.Engine).
		WithStrategy(strategy).
		Build()

	runner := batch.NewRunner(engine).
		WithWorkers(opts.workers).
		WithLogger(logger.NewLogger(level, "batch"))

	var recorder datarecording.DataRecorder
	if opts.db != "" {
		recorder = datarecording.NewDataRecorder(
			strings.TrimSuffix(opts.db, ".sqlite3"))
		defer recorder.Close()

		runner.WithRecorder(recorder)
	}

	if opts.traceAccesses {
		attachAccessTracer(engine, recorder, runner.RunID(), opts.traceEvery)
	}

	if opts.monitor {
		bar := startMonitor(opts, log, len(jobs))
		runner.WithProgress(bar)
	}

	clock := hooking.NewWallClock()
	busy := hooking.NewBusyTimeTracer(clock, nil)
	layers := hooking.NewTaskTimeTracer(clock, isLayerTask)
	runner.AcceptHook(busy)
	runner.AcceptHook(layers)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	results := runner.Run(ctx, jobs)

	log.Noticef("%s with run %s",
		timingSummary(time.Since(start), busy.BusyTime(), layers),
		runner.RunID())

	return reportResults(cmd.OutOrStdout(), results)
}

func isLayerTask(t hooking.TaskStart) bool {
	return t.Kind == batch.TaskKindLayer
}

// timingSummary describes how long the run and its layers took.
func timingSummary(
	elapsed time.Duration,
	busy float64,
	layers *hooking.TaskTimeTracer,
) string {
	h, m, s := logger.ParseTime(elapsed)
	summary := fmt.Sprintf("estimated %d layers in %dh %dm %ds (busy %.2fs)",
		layers.Count(), h, m, s, busy)

	slowest, ok := layers.Slowest()
	if !ok {
		return summary
	}

	return fmt.Sprintf("%s, %.3fs per layer, slowest %s %.3fs",
		summary, layers.Average(), slowest.Task.Where, slowest.Duration)
}

func collectJobs(args []string, log *logging.Logger) ([]batch.Job, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			return batch.DiscoverLayers(args[0], trace.UnifiedNpyName, log)
		}
	}

	return batch.FileJobs(args), nil
}

func attachAccessTracer(
	engine *reusedistance.Engine,
	recorder datarecording.DataRecorder,
	run string,
	every int,
) {
	if recorder != nil {
		tracing.CollectAccesses(engine,
			tracing.NewDBAccessTracer(recorder, run, every))
		return
	}

	tracing.CollectAccesses(engine,
		tracing.NewLogAccessTracer(log.New(os.Stderr, "", 0), every))
}

func startMonitor(
	opts estimateOptions,
	log *logging.Logger,
	numJobs int,
) *monitoring.ProgressBar {
	m := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)
	bar := m.CreateProgressBar("layers", uint64(numJobs))
	url := m.StartServer()

	if opts.openMonitor {
		if err := browser.OpenURL(url); err != nil {
			log.Warningf("cannot open browser: %v", err)
		}
	}

	return bar
}

// reportResults prints the results and fails if any layer failed.
func reportResults(w io.Writer, results []batch.LayerResult) error {
	rows := make([]summaryRow, 0, len(results))
	failed := 0

	for _, res := range results {
		row := summaryRow{
			Entry: datarecording.NewSummaryEntry("", res.Layer, res.Summary),
			Err:   res.Err,
		}

		if res.Err != nil {
			failed++
		}

		rows = append(rows, row)
	}

	renderSummaryTable(w, rows, false)

	if failed > 0 {
		if errors.Is(results[len(results)-1].Err, context.Canceled) {
			return errors.Newf("interrupted, %d of %d layers not estimated",
				failed, len(results))
		}

		return errors.Newf("%d of %d layers failed", failed, len(results))
	}

	return nil
}
