// Package dataset loads evaluation datasets for experiments.
//
// A dataset is an ordered list of records, each pairing an input with
// an optional reference output. Records come from CSV files via a
// column mapping, or are built in code.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one evaluation case.
type Record struct {
	// Input is the user input the agent is run with.
	Input string `json:"input"`

	// ReferenceOutput is the expected answer, if the dataset has one.
	ReferenceOutput string `json:"reference_output,omitempty"`

	// Metadata carries any extra columns, keyed by header name.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Mapping names the CSV columns a record is built from.
type Mapping struct {
	// Input is the header of the input column. Required.
	Input string

	// ReferenceOutput is the header of the reference column. Optional.
	ReferenceOutput string

	// Context lists headers whose values are appended to the input as
	// supporting context, in order, each on its own paragraph.
	Context []string
}

var (
	// ErrNoInputColumn indicates the mapping's input column is missing
	// from the CSV header.
	ErrNoInputColumn = errors.New("input column not found in header")

	// ErrEmptyDataset indicates the source had a header but no rows.
	ErrEmptyDataset = errors.New("dataset has no records")
)

// FromCSVFile reads records from a CSV file.
func FromCSVFile(path string, mapping Mapping) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, err := FromCSV(f, mapping)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// FromCSV reads records from CSV data. The first row is the header.
// Context columns are appended to the input, separated by blank lines,
// so retrieval-style datasets carry their chunks inside the prompt.
func FromCSV(r io.Reader, mapping Mapping) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	inputIdx, ok := cols[mapping.Input]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoInputColumn, mapping.Input)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec := Record{Input: field(row, inputIdx)}

		for _, ctxCol := range mapping.Context {
			if idx, ok := cols[ctxCol]; ok {
				if v := field(row, idx); v != "" {
					rec.Input += "\n\n" + v
				}
			}
		}

		if mapping.ReferenceOutput != "" {
			if idx, ok := cols[mapping.ReferenceOutput]; ok {
				rec.ReferenceOutput = field(row, idx)
			}
		}

		for name, idx := range cols {
			if name == mapping.Input || name == mapping.ReferenceOutput {
				continue
			}
			if contains(mapping.Context, name) {
				continue
			}
			if v := field(row, idx); v != "" {
				if rec.Metadata == nil {
					rec.Metadata = make(map[string]string)
				}
				rec.Metadata[name] = v
			}
		}

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	return records, nil
}

// field returns row[idx] or empty when the row is short.
func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
