// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns pipe-delimited tabular files into indented JSON
// arrays of objects, one object per data record, and drives a sequential
// batch of such conversions with per-file status reporting.
package convert

import (
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/datasheet-export/pkg/types"
)

// Kind classifies a conversion failure.
type Kind int

const (
	// KindGeneric covers every failure other than a missing source:
	// permissions, encoding, malformed records, and write errors.
	KindGeneric Kind = iota + 1
	// KindNotFound means the source file does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindGeneric:
		return "generic"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error reports a failed conversion of the source file at Path.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindNotFound {
		return fmt.Sprintf("source file not found: %s", e.Path)
	}
	return fmt.Sprintf("converting %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err. Errors that did not come from
// this package are KindGeneric; a nil error has kind 0.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindGeneric
}

// Convert reads the source file, cleans every row, and writes the result
// to dest as JSON. It returns the number of rows written. The destination
// directory must already exist; a missing source leaves dest untouched.
func Convert(source, dest string) (int, error) {
	ds, err := ReadDataset(source)
	if err != nil {
		return 0, err
	}
	if err := WriteDataset(dest, ds); err != nil {
		return 0, &Error{Kind: KindGeneric, Path: source, Err: err}
	}
	return len(ds), nil
}

// Outcome records the result of converting one dataset.
type Outcome struct {
	Job    types.Job
	Status types.ConversionStatus
	Rows   int
	Err    error
}

// ConvertFile converts one job and writes a single status line to w.
func ConvertFile(job types.Job, w io.Writer) Outcome {
	out := Outcome{Job: job}

	rows, err := Convert(job.Source, job.Destination)
	switch KindOf(err) {
	case 0:
		out.Status = types.ConversionDone
		out.Rows = rows
		fmt.Fprintf(w, "converted: %s -> %s (%d rows)\n", job.Source, job.Destination, rows)
	case KindNotFound:
		out.Status = types.ConversionNotFound
		out.Err = err
		fmt.Fprintf(w, "not found: %s\n", job.Source)
	default:
		out.Status = types.ConversionFailed
		out.Err = err
		cause := err
		if u := errors.Unwrap(err); u != nil {
			cause = u
		}
		fmt.Fprintf(w, "failed:  %s (%v)\n", job.Source, cause)
	}
	return out
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	NotFound  int
	Failed    int
	Outcomes  []Outcome
}

// Total returns the total number of datasets processed.
func (r BatchResult) Total() int {
	return r.Converted + r.NotFound + r.Failed
}

// HasFailures reports whether any dataset was missing or failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.NotFound > 0 || r.Failed > 0
}

// ConvertBatch converts the jobs one at a time in order, printing per-file
// status to w and returning a summary. A failed job never stops the batch.
func ConvertBatch(jobs []types.Job, w io.Writer) BatchResult {
	result := BatchResult{Outcomes: make([]Outcome, 0, len(jobs))}
	for _, job := range jobs {
		out := ConvertFile(job, w)
		switch out.Status {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNotFound:
			result.NotFound++
		case types.ConversionFailed:
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, out)
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d not found, %d failed (total: %d)\n",
		result.Converted, result.NotFound, result.Failed, result.Total())
	return result
}
