// Package manifest loads notebook execution request files.
//
// A request file is a YAML or JSON document describing one execution
// request: the input notebook plus any of the optional fields the CLI
// exposes as flags. Files are validated against an embedded JSON
// schema before parsing, so unknown fields are rejected rather than
// silently ignored.
package manifest

import (
	"github.com/3leaps/nbrun/pkg/execution"
)

// Manifest is a parsed request file.
type Manifest struct {
	// Image is the container image reference.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// InputPath is the S3 URI of the input notebook. Required.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputPrefix is the S3 prefix receiving results.
	OutputPrefix string `json:"output_prefix,omitempty" yaml:"output_prefix,omitempty"`

	// Notebook identifies the notebook when the input is not the
	// notebook itself.
	Notebook string `json:"notebook,omitempty" yaml:"notebook,omitempty"`

	// Parameters are passed to the notebook.
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Role is the execution role.
	Role string `json:"role,omitempty" yaml:"role,omitempty"`

	// InstanceType is the compute instance type.
	InstanceType string `json:"instance_type,omitempty" yaml:"instance_type,omitempty"`

	// RuleName is the originating schedule rule name.
	RuleName string `json:"rule_name,omitempty" yaml:"rule_name,omitempty"`

	// ExtraArgs is a partial payload merged into the generated one.
	ExtraArgs map[string]any `json:"extra_args,omitempty" yaml:"extra_args,omitempty"`
}

// ToRequest converts the manifest into an execution request.
func (m *Manifest) ToRequest() *execution.Request {
	return &execution.Request{
		Image:        m.Image,
		InputPath:    m.InputPath,
		OutputPrefix: m.OutputPrefix,
		Notebook:     m.Notebook,
		Parameters:   m.Parameters,
		Role:         m.Role,
		InstanceType: m.InstanceType,
		RuleName:     m.RuleName,
		ExtraArgs:    m.ExtraArgs,
	}
}
