package execution

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Overrides is a partially-specified payload fragment supplied by an
// advanced caller via extra_args. Sections left nil are untouched by
// Merge; the per-section semantics are documented on Merge.
type Overrides struct {
	ProcessingInputs       []Input               `mapstructure:"ProcessingInputs"`
	ProcessingOutputConfig *OutputConfigOverride `mapstructure:"ProcessingOutputConfig"`
	ProcessingResources    *ResourcesOverride    `mapstructure:"ProcessingResources"`
	Environment            map[string]string     `mapstructure:"Environment"`
	StoppingCondition      *StoppingCondition    `mapstructure:"StoppingCondition"`
	AppSpecification       *AppSpecification     `mapstructure:"AppSpecification"`
	NetworkConfig          *NetworkConfig        `mapstructure:"NetworkConfig"`
	ExperimentConfig       *ExperimentConfig     `mapstructure:"ExperimentConfig"`
	Tags                   []Tag                 `mapstructure:"Tags"`
}

// OutputConfigOverride extends the output configuration: additional
// outputs are appended, the KMS key (if set) replaces the canonical one.
type OutputConfigOverride struct {
	Outputs  []Output `mapstructure:"Outputs"`
	KmsKeyID *string  `mapstructure:"KmsKeyId"`
}

// ResourcesOverride carries a partial cluster configuration.
type ResourcesOverride struct {
	ClusterConfig *ClusterConfigOverride `mapstructure:"ClusterConfig"`
}

// ClusterConfigOverride is a field-by-field partial ClusterConfig.
// Nil fields leave the canonical value in place.
type ClusterConfigOverride struct {
	InstanceCount  *int    `mapstructure:"InstanceCount"`
	InstanceType   *string `mapstructure:"InstanceType"`
	VolumeSizeInGB *int    `mapstructure:"VolumeSizeInGB"`
}

// OverrideError reports an extra_args fragment the merger cannot
// reconcile (unknown section, wrong shape). Malformed fragments fail
// fast rather than being silently coerced.
type OverrideError struct {
	Err error
}

// Error implements the error interface.
func (e *OverrideError) Error() string {
	return fmt.Sprintf("extra_args: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OverrideError) Unwrap() error {
	return e.Err
}

// DecodeOverrides decodes a raw extra_args mapping into typed
// Overrides. Decoding is strict: unknown keys and mismatched shapes
// (e.g., an object where a list is expected) are errors.
func DecodeOverrides(raw map[string]any) (*Overrides, error) {
	var overrides Overrides
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &overrides,
		ErrorUnused: true,
		ErrorUnset:  false,
	})
	if err != nil {
		return nil, &OverrideError{Err: err}
	}
	if err := dec.Decode(raw); err != nil {
		return nil, &OverrideError{Err: err}
	}
	return &overrides, nil
}

// Merge combines a canonical payload with a caller-supplied override
// fragment, producing a new payload. The canonical payload is never
// mutated; callers may inspect it after the merge.
//
// Per-section semantics (deliberately asymmetric, additive by default):
//   - ProcessingInputs / Outputs: override entries appended after the
//     canonical ones; canonical entries are never removed or reordered.
//   - Output KmsKeyId: overwrite (there is at most one key id).
//   - ClusterConfig: shallow field-by-field merge; unset override
//     fields leave canonical values in place.
//   - Environment: shallow merge. Merge runs before the assembler
//     writes its own keys, so required keys win any collision.
//   - StoppingCondition, AppSpecification, NetworkConfig,
//     ExperimentConfig, Tags: whole-section overwrite.
func Merge(canonical *JobPayload, overrides *Overrides) *JobPayload {
	merged := *canonical

	merged.ProcessingInputs = make([]Input, 0, len(canonical.ProcessingInputs)+len(overrides.ProcessingInputs))
	merged.ProcessingInputs = append(merged.ProcessingInputs, canonical.ProcessingInputs...)
	merged.ProcessingInputs = append(merged.ProcessingInputs, overrides.ProcessingInputs...)

	merged.ProcessingOutputConfig.Outputs = append([]Output(nil), canonical.ProcessingOutputConfig.Outputs...)
	if oc := overrides.ProcessingOutputConfig; oc != nil {
		merged.ProcessingOutputConfig.Outputs = append(merged.ProcessingOutputConfig.Outputs, oc.Outputs...)
		if oc.KmsKeyID != nil {
			merged.ProcessingOutputConfig.KmsKeyID = *oc.KmsKeyID
		}
	}

	if r := overrides.ProcessingResources; r != nil && r.ClusterConfig != nil {
		cc := canonical.ProcessingResources.ClusterConfig
		if r.ClusterConfig.InstanceCount != nil {
			cc.InstanceCount = *r.ClusterConfig.InstanceCount
		}
		if r.ClusterConfig.InstanceType != nil {
			cc.InstanceType = *r.ClusterConfig.InstanceType
		}
		if r.ClusterConfig.VolumeSizeInGB != nil {
			cc.VolumeSizeInGB = *r.ClusterConfig.VolumeSizeInGB
		}
		merged.ProcessingResources.ClusterConfig = cc
	}

	merged.Environment = make(map[string]string, len(canonical.Environment)+len(overrides.Environment))
	for k, v := range canonical.Environment {
		merged.Environment[k] = v
	}
	for k, v := range overrides.Environment {
		merged.Environment[k] = v
	}

	if overrides.StoppingCondition != nil {
		merged.StoppingCondition = *overrides.StoppingCondition
	}
	if overrides.AppSpecification != nil {
		merged.AppSpecification = *overrides.AppSpecification
	}
	if overrides.NetworkConfig != nil {
		merged.NetworkConfig = overrides.NetworkConfig
	}
	if overrides.ExperimentConfig != nil {
		merged.ExperimentConfig = overrides.ExperimentConfig
	}
	if overrides.Tags != nil {
		merged.Tags = append([]Tag(nil), overrides.Tags...)
	}

	return &merged
}
