// Package output provides JSONL output for job listings and sweep runs.
//
// Output is structured as typed record envelopes. Each line is a
// self-contained JSON object that can be parsed independently, so the
// stream survives truncation and can be piped through line-oriented
// tools.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: nbrun.<type>.v<version>
const (
	// TypeJob identifies job status records.
	TypeJob = "nbrun.job.v1"

	// TypeSubmission identifies per-notebook submission records.
	TypeSubmission = "nbrun.submission.v1"

	// TypeError identifies error records.
	TypeError = "nbrun.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "nbrun.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line contains a Record with a type-specific payload in the Data
// field. The type field determines how to interpret Data.
type Record struct {
	// Type identifies the record type (e.g., "nbrun.job.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// RunID is the correlation ID for this invocation.
	RunID string `json:"run_id"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// SubmissionRecord is the data payload for one notebook submission in
// a sweep.
type SubmissionRecord struct {
	// Notebook is the S3 URI of the submitted notebook.
	Notebook string `json:"notebook"`

	// JobName is the service-assigned processing job name.
	JobName string `json:"job_name"`
}

// ErrorRecord is the data payload for errors.
//
// Sweep errors are emitted as records rather than failing the entire
// run, allowing partial results when some submissions fail.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Notebook is the notebook URI related to this error, if applicable.
	Notebook string `json:"notebook,omitempty"`
}

// SummaryRecord is the data payload for the final sweep summary.
type SummaryRecord struct {
	// Matched is the number of notebooks the pattern matched.
	Matched int `json:"matched"`

	// Submitted is the number of jobs successfully created.
	Submitted int `json:"submitted"`

	// Failed is the number of submissions that errored.
	Failed int `json:"failed"`

	// Duration is the wall time of the sweep.
	Duration time.Duration `json:"duration_ns"`
}

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = errors.New("writer is closed")

// WriteError wraps failures from the output layer.
type WriteError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return "output " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}
