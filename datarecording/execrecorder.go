package datarecording

import (
	"os"
	"strings"
	"time"

	"github.com/rs/xid"
)

// RunInfoTable is the table where a recorder notes the program execution.
const RunInfoTable = "run_info"

// RunInfo is one property of the program execution.
type RunInfo struct {
	Property string
	Value    string
}

const execTimeLayout = "2006-01-02 15:04:05.000000000"

// execRecorder records the program execution.
type execRecorder struct {
	recorder DataRecorder
	entries  []RunInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	recorder.CreateTable(RunInfoTable, RunInfo{})

	return &execRecorder{recorder: recorder}
}

// Start notes the start time, the command line, and the working directory.
func (e *execRecorder) Start() {
	e.entries = append(e.entries,
		RunInfo{"Session ID", xid.New().String()},
		RunInfo{"Start Time", time.Now().Format(execTimeLayout)},
		RunInfo{"Command", strings.Join(os.Args, " ")},
	)

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.entries = append(e.entries, RunInfo{"Working Directory", cwd})
}

// End writes the collected entries along with the end time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(RunInfoTable, entry)
	}

	e.recorder.InsertData(RunInfoTable,
		RunInfo{"End Time", time.Now().Format(execTimeLayout)})

	e.entries = nil

	e.recorder.Flush()
}
