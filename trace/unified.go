package trace

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
)

var unifiedHeader = []string{"cycle", "op", "row", "col", "line", "is_write"}

// WriteUnified writes merged events as CSV with a header line.
func WriteUnified(w io.Writer, events []Event) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(unifiedHeader); err != nil {
		return err
	}

	record := make([]string, len(unifiedHeader))
	for _, e := range events {
		isWrite := "0"
		if e.IsWrite {
			isWrite = "1"
		}

		record[0] = strconv.FormatInt(e.Cycle, 10)
		record[1] = e.Op.String()
		record[2] = strconv.FormatInt(e.Row, 10)
		record[3] = strconv.FormatInt(e.Col, 10)
		record[4] = strconv.FormatInt(e.Line, 10)
		record[5] = isWrite

		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

// ReadUnified reads events written by WriteUnified.
func ReadUnified(r io.Reader) ([]Event, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(unifiedHeader)

	if _, err := reader.Read(); err != nil {
		return nil, errors.Wrap(err, "reading unified trace header")
	}

	var events []Event

	for lineNo := 2; ; lineNo++ {
		record, err := reader.Read()
		if err == io.EOF {
			return events, nil
		}

		if err != nil {
			return nil, errors.Wrapf(err, "reading unified trace line %d", lineNo)
		}

		e, err := parseUnified(record)
		if err != nil {
			return nil, errors.Wrapf(err, "unified trace line %d", lineNo)
		}

		events = append(events, e)
	}
}

func parseUnified(record []string) (Event, error) {
	var (
		e    Event
		err  error
		ints [4]int64
	)

	e.Op, err = ParseOperand(record[1])
	if err != nil {
		return e, err
	}

	for i, field := range []string{record[0], record[2], record[3], record[4]} {
		ints[i], err = strconv.ParseInt(field, 10, 64)
		if err != nil {
			return e, err
		}
	}

	e.Cycle, e.Row, e.Col, e.Line = ints[0], ints[1], ints[2], ints[3]
	e.IsWrite = record[5] == "1"

	return e, nil
}
