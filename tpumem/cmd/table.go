package cmd

import (
	"fmt"
	"io"

	"github.com/azaharalam/PPT-TPU-MEM/datarecording"
	"github.com/jedib0t/go-pretty/v6/table"
)

// summaryRow is one line of a result table. Err is set for a layer that
// could not be estimated.
type summaryRow struct {
	Run   string
	Entry datarecording.SummaryEntry
	Err   error
}

func renderSummaryTable(w io.Writer, rows []summaryRow, withRun bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{"Layer", "Accesses", "Hit Rate", "Misses",
		"DRAM Cycles", "AMAT", "Mean Dist", "P90 Dist"}
	if withRun {
		header = append(table.Row{"Run"}, header...)
	}

	t.AppendHeader(header)

	var (
		accesses int
		misses   float64
		cycles   uint64
	)

	for _, r := range rows {
		e := r.Entry

		var row table.Row
		if r.Err != nil {
			row = table.Row{e.Layer, "error", r.Err.Error(), "", "", "", "", ""}
		} else {
			row = table.Row{
				e.Layer,
				e.TotalAccesses,
				fmt.Sprintf("%.4f", e.HitRate),
				fmt.Sprintf("%.1f", e.MissCount),
				e.BWCycles,
				fmt.Sprintf("%.2f", e.AMAT),
				fmt.Sprintf("%.1f", e.MeanDistance),
				fmt.Sprintf("%.0f", e.P90Distance),
			}

			accesses += e.TotalAccesses
			misses += e.MissCount
			cycles += e.BWCycles
		}

		if withRun {
			row = append(table.Row{r.Run}, row...)
		}

		t.AppendRow(row)
	}

	footer := table.Row{"Total", accesses, "", fmt.Sprintf("%.1f", misses),
		cycles, "", "", ""}
	if withRun {
		footer = append(table.Row{""}, footer...)
	}

	t.AppendFooter(footer)
	t.Render()
}
