// Package submit is the thin adapter between assembled job payloads
// and the SageMaker Processing API.
//
// The adapter converts the typed payload into the SDK request shape,
// submits it, and hands service errors back verbatim (wrapped for
// context, never interpreted or retried). Job lifecycle reads
// (describe/stop/list) live here too so callers never hold a raw
// service client.
package submit

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/3leaps/nbrun/pkg/execution"
)

// SageMakerAPI is the subset of the SageMaker client used by the submitter.
type SageMakerAPI interface {
	CreateProcessingJob(ctx context.Context, params *sagemaker.CreateProcessingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateProcessingJobOutput, error)
	DescribeProcessingJob(ctx context.Context, params *sagemaker.DescribeProcessingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeProcessingJobOutput, error)
	StopProcessingJob(ctx context.Context, params *sagemaker.StopProcessingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.StopProcessingJobOutput, error)
	ListProcessingJobs(ctx context.Context, params *sagemaker.ListProcessingJobsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListProcessingJobsOutput, error)
}

// Submitter submits assembled payloads to the processing service.
type Submitter struct {
	client SageMakerAPI
}

// New creates a submitter using the default AWS config chain.
func New(ctx context.Context) (*Submitter, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, &ServiceError{Op: "New", Err: err}
	}
	return &Submitter{client: sagemaker.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates a submitter with an explicit client.
func NewWithClient(client SageMakerAPI) *Submitter {
	return &Submitter{client: client}
}

// Submit creates the processing job and returns the service-assigned
// job name, extracted as the trailing path segment of the returned ARN.
func (s *Submitter) Submit(ctx context.Context, payload *execution.JobPayload) (string, error) {
	out, err := s.client.CreateProcessingJob(ctx, toCreateInput(payload))
	if err != nil {
		return "", wrapError("Submit", payload.ProcessingJobName, err)
	}
	return nameFromARN(aws.ToString(out.ProcessingJobArn)), nil
}

// JobStatus summarizes a processing job's lifecycle state.
type JobStatus struct {
	Name          string     `json:"job_name"`
	Status        string     `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	ExitMessage   string     `json:"exit_message,omitempty"`
	OutputPrefix  string     `json:"output_prefix,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// Describe returns the current status of a processing job.
func (s *Submitter) Describe(ctx context.Context, jobName string) (*JobStatus, error) {
	out, err := s.client.DescribeProcessingJob(ctx, &sagemaker.DescribeProcessingJobInput{
		ProcessingJobName: aws.String(jobName),
	})
	if err != nil {
		return nil, wrapError("Describe", jobName, err)
	}

	status := &JobStatus{
		Name:          aws.ToString(out.ProcessingJobName),
		Status:        string(out.ProcessingJobStatus),
		FailureReason: aws.ToString(out.FailureReason),
		ExitMessage:   aws.ToString(out.ExitMessage),
		CreatedAt:     aws.ToTime(out.CreationTime),
		StartedAt:     out.ProcessingStartTime,
		EndedAt:       out.ProcessingEndTime,
	}

	if oc := out.ProcessingOutputConfig; oc != nil {
		for _, o := range oc.Outputs {
			if o.S3Output != nil && o.S3Output.S3Uri != nil {
				status.OutputPrefix = aws.ToString(o.S3Output.S3Uri)
				break
			}
		}
	}

	return status, nil
}

// Stop requests termination of a running processing job.
func (s *Submitter) Stop(ctx context.Context, jobName string) error {
	_, err := s.client.StopProcessingJob(ctx, &sagemaker.StopProcessingJobInput{
		ProcessingJobName: aws.String(jobName),
	})
	if err != nil {
		return wrapError("Stop", jobName, err)
	}
	return nil
}

// ListOptions filters a job listing.
type ListOptions struct {
	// NameContains restricts results to names containing the substring.
	NameContains string

	// Since restricts results to jobs created after the given time.
	Since time.Time

	// MaxResults caps the page size. Zero uses the service default.
	MaxResults int

	// NextToken resumes a previous listing.
	NextToken string
}

// ListResult is one page of job summaries.
type ListResult struct {
	Jobs      []JobStatus `json:"jobs"`
	NextToken string      `json:"next_token,omitempty"`
}

// List returns processing jobs, newest first.
func (s *Submitter) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	input := &sagemaker.ListProcessingJobsInput{
		SortBy:    types.SortByCreationTime,
		SortOrder: types.SortOrderDescending,
	}
	if opts.NameContains != "" {
		input.NameContains = aws.String(opts.NameContains)
	}
	if !opts.Since.IsZero() {
		input.CreationTimeAfter = aws.Time(opts.Since)
	}
	if opts.MaxResults > 0 {
		input.MaxResults = aws.Int32(int32(opts.MaxResults))
	}
	if opts.NextToken != "" {
		input.NextToken = aws.String(opts.NextToken)
	}

	out, err := s.client.ListProcessingJobs(ctx, input)
	if err != nil {
		return nil, wrapError("List", "", err)
	}

	result := &ListResult{
		Jobs:      make([]JobStatus, 0, len(out.ProcessingJobSummaries)),
		NextToken: aws.ToString(out.NextToken),
	}
	for _, s := range out.ProcessingJobSummaries {
		result.Jobs = append(result.Jobs, JobStatus{
			Name:          aws.ToString(s.ProcessingJobName),
			Status:        string(s.ProcessingJobStatus),
			FailureReason: aws.ToString(s.FailureReason),
			ExitMessage:   aws.ToString(s.ExitMessage),
			CreatedAt:     aws.ToTime(s.CreationTime),
			EndedAt:       s.ProcessingEndTime,
		})
	}

	return result, nil
}

// nameFromARN extracts the trailing path segment of an ARN-like
// identifier. Returns the input unchanged if it has no slash.
func nameFromARN(arn string) string {
	if idx := strings.LastIndex(arn, "/"); idx >= 0 {
		return arn[idx+1:]
	}
	return arn
}
