package submit

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/3leaps/nbrun/pkg/execution"
)

// toCreateInput converts an assembled payload into the SDK request
// shape. Purely mechanical; all semantics live in pkg/execution.
func toCreateInput(p *execution.JobPayload) *sagemaker.CreateProcessingJobInput {
	input := &sagemaker.CreateProcessingJobInput{
		ProcessingJobName: aws.String(p.ProcessingJobName),
		RoleArn:           aws.String(p.RoleArn),
		Environment:       p.Environment,
		AppSpecification: &types.AppSpecification{
			ImageUri:            aws.String(p.AppSpecification.ImageURI),
			ContainerEntrypoint: p.AppSpecification.ContainerEntrypoint,
			ContainerArguments:  p.AppSpecification.ContainerArguments,
		},
		ProcessingResources: &types.ProcessingResources{
			ClusterConfig: &types.ProcessingClusterConfig{
				InstanceCount:  aws.Int32(int32(p.ProcessingResources.ClusterConfig.InstanceCount)),
				InstanceType:   types.ProcessingInstanceType(p.ProcessingResources.ClusterConfig.InstanceType),
				VolumeSizeInGB: aws.Int32(int32(p.ProcessingResources.ClusterConfig.VolumeSizeInGB)),
			},
		},
		StoppingCondition: &types.ProcessingStoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(int32(p.StoppingCondition.MaxRuntimeInSeconds)),
		},
	}

	for _, in := range p.ProcessingInputs {
		input.ProcessingInputs = append(input.ProcessingInputs, types.ProcessingInput{
			InputName: aws.String(in.InputName),
			S3Input: &types.ProcessingS3Input{
				S3Uri:                  aws.String(in.S3Input.S3Uri),
				LocalPath:              aws.String(in.S3Input.LocalPath),
				S3DataType:             types.ProcessingS3DataType(in.S3Input.S3DataType),
				S3InputMode:            types.ProcessingS3InputMode(in.S3Input.S3InputMode),
				S3DataDistributionType: types.ProcessingS3DataDistributionType(in.S3Input.S3DataDistributionType),
			},
		})
	}

	outputConfig := &types.ProcessingOutputConfig{}
	if p.ProcessingOutputConfig.KmsKeyID != "" {
		outputConfig.KmsKeyId = aws.String(p.ProcessingOutputConfig.KmsKeyID)
	}
	for _, out := range p.ProcessingOutputConfig.Outputs {
		outputConfig.Outputs = append(outputConfig.Outputs, types.ProcessingOutput{
			OutputName: aws.String(out.OutputName),
			S3Output: &types.ProcessingS3Output{
				S3Uri:        aws.String(out.S3Output.S3Uri),
				LocalPath:    aws.String(out.S3Output.LocalPath),
				S3UploadMode: types.ProcessingS3UploadMode(out.S3Output.S3UploadMode),
			},
		})
	}
	input.ProcessingOutputConfig = outputConfig

	if nc := p.NetworkConfig; nc != nil {
		sdkNC := &types.NetworkConfig{
			EnableInterContainerTrafficEncryption: aws.Bool(aws.ToBool(nc.EnableInterContainerTrafficEncryption)),
			EnableNetworkIsolation:                aws.Bool(aws.ToBool(nc.EnableNetworkIsolation)),
		}
		if nc.VpcConfig != nil {
			sdkNC.VpcConfig = &types.VpcConfig{
				SecurityGroupIds: nc.VpcConfig.SecurityGroupIDs,
				Subnets:          nc.VpcConfig.Subnets,
			}
		}
		input.NetworkConfig = sdkNC
	}

	if ec := p.ExperimentConfig; ec != nil {
		sdkEC := &types.ExperimentConfig{}
		if ec.ExperimentName != "" {
			sdkEC.ExperimentName = aws.String(ec.ExperimentName)
		}
		if ec.TrialName != "" {
			sdkEC.TrialName = aws.String(ec.TrialName)
		}
		if ec.TrialComponentDisplayName != "" {
			sdkEC.TrialComponentDisplayName = aws.String(ec.TrialComponentDisplayName)
		}
		input.ExperimentConfig = sdkEC
	}

	for _, tag := range p.Tags {
		input.Tags = append(input.Tags, types.Tag{
			Key:   aws.String(tag.Key),
			Value: aws.String(tag.Value),
		})
	}

	return input
}
