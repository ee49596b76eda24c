package trace

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// An Event is one line-granular DRAM access of one operand.
type Event struct {
	Cycle   int64
	Op      Operand
	Row     int64
	Col     int64
	Line    int64
	IsWrite bool
}

// ReadDRAMTrace parses a DRAM trace with one "cycle, addr, addr, ..." record
// per line. Records without a numeric cycle and cells that are not valid
// addresses of the operand are skipped.
func ReadDRAMTrace(r io.Reader, op Operand, c Config) ([]Event, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	lineBits := c.LineBits()
	offset := c.Offset(op)

	var events []Event

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(err, "reading %s trace", op)
		}

		if len(record) == 0 {
			continue
		}

		cycle, ok := parseInt(record[0])
		if !ok {
			continue
		}

		for idx, cell := range record[1:] {
			addr, ok := parseInt(cell)
			if !ok || addr < 0 {
				continue
			}

			addr -= offset
			if addr < 0 {
				continue
			}

			row, col := c.MapPE(op, int64(idx))

			events = append(events, Event{
				Cycle:   cycle,
				Op:      op,
				Row:     row,
				Col:     col,
				Line:    addr >> lineBits,
				IsWrite: op.IsWrite(),
			})
		}
	}

	return events, nil
}

// parseInt accepts integers written as floats, truncating toward zero.
func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}

	return int64(f), true
}
