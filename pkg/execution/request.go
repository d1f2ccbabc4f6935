// Package execution expands a sparse notebook execution request into a
// complete SageMaker Processing job submission payload.
//
// The pipeline is pure and synchronous: validate the request, normalize
// optional fields against the caller identity, derive the job name and
// container paths, assemble the canonical payload, and finally merge an
// optional caller-supplied override fragment. Nothing here performs I/O;
// submission lives in pkg/submit.
package execution

import (
	"fmt"

	"github.com/3leaps/nbrun/pkg/s3uri"
)

// DefaultInstanceType is the compute instance type used when the
// request does not specify one.
const DefaultInstanceType = "ml.m5.large"

// Request is a single notebook execution request.
//
// Only InputPath is required. Every other field is filled in by
// convention-based defaulting against the resolved caller identity.
// A Request is never mutated; normalization produces new values.
type Request struct {
	// Image is the container image reference. Optional.
	// Bare names are qualified against the caller's ECR registry,
	// untagged references get ":latest".
	Image string `json:"image,omitempty" mapstructure:"image"`

	// InputPath is the S3 URI of the input artifact. Required.
	InputPath string `json:"input_path" mapstructure:"input_path"`

	// OutputPrefix is the S3 prefix receiving results. Optional;
	// defaults to the directory portion of InputPath.
	OutputPrefix string `json:"output_prefix,omitempty" mapstructure:"output_prefix"`

	// Notebook identifies the notebook to execute. Optional; defaults
	// to InputPath (the input artifact is assumed to be the notebook).
	Notebook string `json:"notebook,omitempty" mapstructure:"notebook"`

	// Parameters are passed to the notebook, serialized as JSON into
	// the job environment. Optional.
	Parameters map[string]any `json:"parameters,omitempty" mapstructure:"parameters"`

	// Role is the execution role. Optional; bare names are qualified
	// into a full role ARN.
	Role string `json:"role,omitempty" mapstructure:"role"`

	// InstanceType is the compute instance type.
	// Defaults to DefaultInstanceType.
	InstanceType string `json:"instance_type,omitempty" mapstructure:"instance_type"`

	// RuleName is the originating schedule-rule name, present only for
	// scheduled invocations. Recorded in the job environment for
	// observability; never part of the job name.
	RuleName string `json:"rule_name,omitempty" mapstructure:"rule_name"`

	// ExtraArgs is an optional partial payload deep-merged into the
	// canonical one. See Merge for the per-section semantics.
	ExtraArgs map[string]any `json:"extra_args,omitempty" mapstructure:"extra_args"`
}

// RequestError reports an invalid or missing request field.
type RequestError struct {
	// Field is the offending request field, in wire form (e.g., "input_path").
	Field string

	// Message describes the problem.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("execution request: %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("execution request: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Validate checks the request's required fields.
//
// Validation failures surface before any payload is produced; a request
// that fails here never reaches the assembler.
func (r *Request) Validate() error {
	if r.InputPath == "" {
		return &RequestError{Field: "input_path", Message: "is required"}
	}
	if _, err := s3uri.Parse(r.InputPath); err != nil {
		return &RequestError{Field: "input_path", Message: "must be an S3 URI", Err: err}
	}
	if r.OutputPrefix != "" {
		if _, err := s3uri.Parse(r.OutputPrefix); err != nil {
			return &RequestError{Field: "output_prefix", Message: "must be an S3 URI", Err: err}
		}
	}
	return nil
}
