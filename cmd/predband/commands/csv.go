package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"predband/table"
)

// readFrame loads a CSV with a header row. A column whose every value
// parses as a number becomes numeric, anything else becomes a label
// column, so factor covariates need no declaration.
func readFrame(path string) (*table.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	records, err := csv.NewReader(fh).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: need a header row and at least one data row", path)
	}

	header := records[0]
	rows := records[1:]
	frame := table.NewFrame(len(rows))

	for j, name := range header {
		numeric := make([]float64, len(rows))
		isNumeric := true
		for i, rec := range rows {
			if j >= len(rec) {
				return nil, fmt.Errorf("%s: row %d has %d fields, header has %d", path, i+2, len(rec), len(header))
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				isNumeric = false
				break
			}
			numeric[i] = v
		}
		if isNumeric {
			if err := frame.AddNumeric(name, numeric); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			continue
		}
		labels := make([]string, len(rows))
		for i, rec := range rows {
			labels[i] = rec[j]
		}
		if err := frame.AddLabel(name, labels); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return frame, nil
}

// writeFrame writes the frame as CSV, columns in insertion order.
func writeFrame(w io.Writer, frame *table.Frame) error {
	cw := csv.NewWriter(w)
	names := frame.Names()
	if err := cw.Write(names); err != nil {
		return err
	}

	rec := make([]string, len(names))
	for i := 0; i < frame.Len(); i++ {
		for j, name := range names {
			if col, ok := frame.Numeric(name); ok {
				rec[j] = strconv.FormatFloat(col[i], 'g', -1, 64)
			} else if col, ok := frame.Label(name); ok {
				rec[j] = col[i]
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeOutput(frame *table.Frame) error {
	if outPath == "" {
		return writeFrame(os.Stdout, frame)
	}
	fh, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer fh.Close()
	return writeFrame(fh, frame)
}
