package execution

import (
	"encoding/json"
	"os"
	"time"

	"github.com/3leaps/nbrun/pkg/identity"
)

// Environment keys written by the assembler. These always win over
// override collisions; see Build.
const (
	// EnvInput is the container-local input notebook path.
	EnvInput = "PAPERMILL_INPUT"

	// EnvOutput is the container-local result notebook path.
	EnvOutput = "PAPERMILL_OUTPUT"

	// EnvParams carries the JSON-serialized parameter mapping.
	EnvParams = "PAPERMILL_PARAMS"

	// EnvNotebookName is the original notebook filename.
	EnvNotebookName = "PAPERMILL_NOTEBOOK_NAME"

	// EnvRegion mirrors the invoking environment's region variable,
	// written only when that variable is set.
	EnvRegion = "AWS_DEFAULT_REGION"

	// EnvRuleName records the schedule rule that triggered the job.
	// Observational only; never influences naming or provisioning.
	EnvRuleName = "AWS_EVENTBRIDGE_RULE"
)

// Descriptor names of the canonical input and output.
const (
	canonicalInputName  = "notebook"
	canonicalOutputName = "result"
)

// S3Input locates an input artifact and its container mount.
type S3Input struct {
	S3Uri                  string `json:"S3Uri" mapstructure:"S3Uri"`
	LocalPath              string `json:"LocalPath" mapstructure:"LocalPath"`
	S3DataType             string `json:"S3DataType" mapstructure:"S3DataType"`
	S3InputMode            string `json:"S3InputMode" mapstructure:"S3InputMode"`
	S3DataDistributionType string `json:"S3DataDistributionType" mapstructure:"S3DataDistributionType"`
}

// Input is a named input descriptor.
type Input struct {
	InputName string  `json:"InputName" mapstructure:"InputName"`
	S3Input   S3Input `json:"S3Input" mapstructure:"S3Input"`
}

// S3Output maps a container-local path to its S3 destination.
type S3Output struct {
	S3Uri        string `json:"S3Uri" mapstructure:"S3Uri"`
	LocalPath    string `json:"LocalPath" mapstructure:"LocalPath"`
	S3UploadMode string `json:"S3UploadMode" mapstructure:"S3UploadMode"`
}

// Output is a named output descriptor.
type Output struct {
	OutputName string   `json:"OutputName" mapstructure:"OutputName"`
	S3Output   S3Output `json:"S3Output" mapstructure:"S3Output"`
}

// OutputConfig is the job's output configuration.
type OutputConfig struct {
	Outputs  []Output `json:"Outputs" mapstructure:"Outputs"`
	KmsKeyID string   `json:"KmsKeyId,omitempty" mapstructure:"KmsKeyId"`
}

// ClusterConfig is the compute resource specification.
type ClusterConfig struct {
	InstanceCount  int    `json:"InstanceCount" mapstructure:"InstanceCount"`
	InstanceType   string `json:"InstanceType" mapstructure:"InstanceType"`
	VolumeSizeInGB int    `json:"VolumeSizeInGB" mapstructure:"VolumeSizeInGB"`
}

// Resources wraps the cluster configuration.
type Resources struct {
	ClusterConfig ClusterConfig `json:"ClusterConfig" mapstructure:"ClusterConfig"`
}

// StoppingCondition caps job runtime.
type StoppingCondition struct {
	MaxRuntimeInSeconds int `json:"MaxRuntimeInSeconds" mapstructure:"MaxRuntimeInSeconds"`
}

// AppSpecification names the container image and its invocation.
type AppSpecification struct {
	ImageURI            string   `json:"ImageUri" mapstructure:"ImageUri"`
	ContainerEntrypoint []string `json:"ContainerEntrypoint,omitempty" mapstructure:"ContainerEntrypoint"`
	ContainerArguments  []string `json:"ContainerArguments,omitempty" mapstructure:"ContainerArguments"`
}

// VpcConfig attaches the job to subnets and security groups.
type VpcConfig struct {
	SecurityGroupIDs []string `json:"SecurityGroupIds" mapstructure:"SecurityGroupIds"`
	Subnets          []string `json:"Subnets" mapstructure:"Subnets"`
}

// NetworkConfig is an optional payload section, present only via override.
type NetworkConfig struct {
	EnableInterContainerTrafficEncryption *bool      `json:"EnableInterContainerTrafficEncryption,omitempty" mapstructure:"EnableInterContainerTrafficEncryption"`
	EnableNetworkIsolation                *bool      `json:"EnableNetworkIsolation,omitempty" mapstructure:"EnableNetworkIsolation"`
	VpcConfig                             *VpcConfig `json:"VpcConfig,omitempty" mapstructure:"VpcConfig"`
}

// ExperimentConfig is an optional payload section, present only via override.
type ExperimentConfig struct {
	ExperimentName            string `json:"ExperimentName,omitempty" mapstructure:"ExperimentName"`
	TrialName                 string `json:"TrialName,omitempty" mapstructure:"TrialName"`
	TrialComponentDisplayName string `json:"TrialComponentDisplayName,omitempty" mapstructure:"TrialComponentDisplayName"`
}

// Tag is a resource tag, present only via override.
type Tag struct {
	Key   string `json:"Key" mapstructure:"Key"`
	Value string `json:"Value" mapstructure:"Value"`
}

// JobPayload is the fully assembled processing job submission.
//
// Field names and JSON tags follow the service API shape so a payload
// printed by `nbrun payload` reads exactly like the request the service
// receives.
type JobPayload struct {
	ProcessingJobName      string            `json:"ProcessingJobName"`
	ProcessingInputs       []Input           `json:"ProcessingInputs"`
	ProcessingOutputConfig OutputConfig      `json:"ProcessingOutputConfig"`
	ProcessingResources    Resources         `json:"ProcessingResources"`
	StoppingCondition      StoppingCondition `json:"StoppingCondition"`
	AppSpecification       AppSpecification  `json:"AppSpecification"`
	Environment            map[string]string `json:"Environment"`
	RoleArn                string            `json:"RoleArn"`

	// Optional sections, absent unless supplied via override.
	NetworkConfig    *NetworkConfig    `json:"NetworkConfig,omitempty"`
	ExperimentConfig *ExperimentConfig `json:"ExperimentConfig,omitempty"`
	Tags             []Tag             `json:"Tags,omitempty"`
}

// Builder expands requests into job payloads.
//
// A Builder is immutable and safe for concurrent use; each Build call
// is an independent pure computation over its inputs plus the wall
// clock and the invoking environment's region variable.
type Builder struct {
	// Defaults are the convention-based values applied during
	// normalization and assembly.
	Defaults Defaults
}

// Build expands req into a complete JobPayload for the given caller.
//
// Steps, in order: validate, normalize, derive names, assemble the
// canonical payload, merge overrides (if any), then write the
// assembler-owned environment keys. The ordering matters: override
// environment entries land first, so the required keys always win a
// collision.
func (b *Builder) Build(caller *identity.Caller, req *Request, now time.Time) (*JobPayload, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	norm, err := normalize(req, caller, b.Defaults)
	if err != nil {
		return nil, err
	}
	names := deriveNames(norm.Notebook, norm.InputPath, now)

	payload := b.assemble(norm, names)

	if len(req.ExtraArgs) > 0 {
		overrides, err := DecodeOverrides(req.ExtraArgs)
		if err != nil {
			return nil, err
		}
		payload = Merge(payload, overrides)
	}

	params, err := encodeParameters(req.Parameters)
	if err != nil {
		return nil, &RequestError{Field: "parameters", Message: "not serializable", Err: err}
	}

	payload.Environment[EnvInput] = names.LocalInput
	payload.Environment[EnvOutput] = names.LocalOutput
	payload.Environment[EnvParams] = params
	payload.Environment[EnvNotebookName] = names.NotebookFile
	if region := os.Getenv(EnvRegion); region != "" {
		payload.Environment[EnvRegion] = region
	}
	if req.RuleName != "" {
		payload.Environment[EnvRuleName] = req.RuleName
	}

	return payload, nil
}

// assemble builds the canonical payload: exactly one input descriptor,
// exactly one output descriptor, resources, stopping condition, and an
// environment that the tail of Build fills in.
func (b *Builder) assemble(norm *normalized, names derived) *JobPayload {
	return &JobPayload{
		ProcessingJobName: names.JobName,
		ProcessingInputs: []Input{
			{
				InputName: canonicalInputName,
				S3Input: S3Input{
					S3Uri:                  norm.InputPath,
					LocalPath:              ContainerInputDir,
					S3DataType:             "S3Prefix",
					S3InputMode:            "File",
					S3DataDistributionType: "FullyReplicated",
				},
			},
		},
		ProcessingOutputConfig: OutputConfig{
			Outputs: []Output{
				{
					OutputName: canonicalOutputName,
					S3Output: S3Output{
						S3Uri:        norm.OutputPrefix,
						LocalPath:    ContainerOutputDir,
						S3UploadMode: "EndOfJob",
					},
				},
			},
		},
		ProcessingResources: Resources{
			ClusterConfig: ClusterConfig{
				InstanceCount:  1,
				InstanceType:   norm.InstanceType,
				VolumeSizeInGB: b.Defaults.volumeSizeGB(),
			},
		},
		StoppingCondition: StoppingCondition{
			MaxRuntimeInSeconds: b.Defaults.maxRuntimeSeconds(),
		},
		AppSpecification: AppSpecification{
			ImageURI:           norm.Image,
			ContainerArguments: b.Defaults.containerArguments(),
		},
		Environment: map[string]string{},
		RoleArn:     norm.Role,
	}
}

// encodeParameters serializes the parameter mapping as deterministic
// JSON (object keys sorted). A nil mapping encodes as "{}" so the
// container always sees a valid document.
func encodeParameters(params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
