// Package batch estimates many layers concurrently.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/azaharalam/PPT-TPU-MEM/datarecording"
	"github.com/azaharalam/PPT-TPU-MEM/hooking"
	"github.com/azaharalam/PPT-TPU-MEM/logger"
	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
	"github.com/op/go-logging"
	"github.com/rs/xid"
)

// A Job is the estimation of one layer.
type Job struct {
	Layer  string
	Source reusedistance.Source
}

// A LayerResult is the outcome of a Job. Err is set if the layer could not be
// estimated, in which case Summary is empty.
type LayerResult struct {
	Layer   string
	Summary reusedistance.Summary
	Elapsed time.Duration
	Err     error
}

// TaskKindLayer is the kind of the tasks a Runner publishes.
const TaskKindLayer = "layer"

// ProgressReporter is notified when jobs start and finish.
type ProgressReporter interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// Runner runs jobs on a bounded pool of workers that share one engine. It
// publishes a TaskStart and a TaskEnd for every job it runs.
type Runner struct {
	hooking.HookableBase

	engine   *reusedistance.Engine
	workers  int
	run      string
	recorder datarecording.DataRecorder
	progress ProgressReporter
	log      *logging.Logger
}

// NewRunner creates a Runner with 4 workers and a fresh run ID.
func NewRunner(engine *reusedistance.Engine) *Runner {
	return &Runner{
		engine:  engine,
		workers: 4,
		run:     xid.New().String(),
		log:     logger.NewLogger("INFO", "batch"),
	}
}

// WithWorkers sets the number of layers estimated at the same time.
func (r *Runner) WithWorkers(n int) *Runner {
	if n < 1 {
		n = 1
	}

	r.workers = n

	return r
}

// WithRunID sets the label that identifies the batch in recorded tables.
func (r *Runner) WithRunID(run string) *Runner {
	r.run = run
	return r
}

// WithRecorder makes the runner record the summary of every layer.
func (r *Runner) WithRecorder(rec datarecording.DataRecorder) *Runner {
	r.recorder = rec
	return r
}

// WithProgress sets the reporter notified about jobs.
func (r *Runner) WithProgress(p ProgressReporter) *Runner {
	r.progress = p
	return r
}

// WithLogger sets the logger.
func (r *Runner) WithLogger(log *logging.Logger) *Runner {
	r.log = log
	return r
}

// RunID returns the label of the batch.
func (r *Runner) RunID() string {
	return r.run
}

// Run estimates the jobs and returns their results in job order. A failing
// layer does not stop the others. Once ctx is done no more jobs are started;
// jobs already running complete, and the jobs never started report the
// context error.
func (r *Runner) Run(ctx context.Context, jobs []Job) []LayerResult {
	results := make([]LayerResult, len(jobs))
	for i, job := range jobs {
		results[i].Layer = job.Layer
	}

	jobCh := make(chan int)
	wg := sync.WaitGroup{}

	for w := 0; w < r.workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobCh {
				results[i] = r.runJob(jobs[i])
			}
		}()
	}

	dispatched := r.dispatch(ctx, len(jobs), jobCh)
	close(jobCh)
	wg.Wait()

	for i := dispatched; i < len(jobs); i++ {
		results[i].Err = ctx.Err()
	}

	if dispatched < len(jobs) {
		r.log.Warningf("stopped after %d of %d layers: %v",
			dispatched, len(jobs), ctx.Err())
	}

	return results
}

func (r *Runner) dispatch(ctx context.Context, n int, jobCh chan<- int) int {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return i
		}

		select {
		case <-ctx.Done():
			return i
		case jobCh <- i:
		}
	}

	return n
}

func (r *Runner) runJob(job Job) LayerResult {
	taskID := xid.New().String()

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    hooking.HookPosTaskStart,
		Item: hooking.TaskStart{
			ID:    taskID,
			Kind:  TaskKindLayer,
			What:  "estimate",
			Where: job.Layer,
		},
	})

	if r.progress != nil {
		r.progress.IncrementInProgress(1)
	}

	start := time.Now()
	summary, err := r.engine.ComputeFrom(job.Source)
	res := LayerResult{
		Layer:   job.Layer,
		Summary: summary,
		Elapsed: time.Since(start),
		Err:     err,
	}

	if err != nil {
		r.log.Errorf("layer %s failed: %v", job.Layer, err)
	} else {
		r.log.Debugf("layer %s: %d accesses, hit rate %.4f",
			job.Layer, summary.TotalAccesses, summary.HitRate)

		if r.recorder != nil {
			datarecording.RecordSummary(r.recorder, r.run, job.Layer, summary)
		}
	}

	if r.progress != nil {
		r.progress.MoveInProgressToFinished(1)
	}

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    hooking.HookPosTaskEnd,
		Item:   hooking.TaskEnd{ID: taskID},
	})

	return res
}
