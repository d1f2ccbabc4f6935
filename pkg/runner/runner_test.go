package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/nbrun/pkg/execution"
	"github.com/3leaps/nbrun/pkg/identity"
	"github.com/3leaps/nbrun/pkg/submit"
)

type stubResolver struct {
	caller *identity.Caller
	err    error
}

func (s stubResolver) Resolve(ctx context.Context) (*identity.Caller, error) {
	return s.caller, s.err
}

type stubJobs struct {
	submitted *execution.JobPayload
	submitErr error
	stopped   string
}

func (s *stubJobs) Submit(ctx context.Context, payload *execution.JobPayload) (string, error) {
	s.submitted = payload
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return payload.ProcessingJobName, nil
}

func (s *stubJobs) Describe(ctx context.Context, jobName string) (*submit.JobStatus, error) {
	return &submit.JobStatus{Name: jobName, Status: "InProgress"}, nil
}

func (s *stubJobs) Stop(ctx context.Context, jobName string) error {
	s.stopped = jobName
	return nil
}

func (s *stubJobs) List(ctx context.Context, opts submit.ListOptions) (*submit.ListResult, error) {
	return &submit.ListResult{}, nil
}

func testRunner(jobs *stubJobs) *Runner {
	resolver := stubResolver{caller: &identity.Caller{
		Region:       "us-east-1",
		Partition:    "aws",
		AccountID:    "123456789012",
		DomainSuffix: "amazonaws.com",
	}}
	r := New(resolver, jobs, execution.Defaults{})
	return r.WithClock(func() time.Time {
		return time.Date(2026, 8, 24, 15, 4, 5, 0, time.UTC)
	})
}

func TestExecute(t *testing.T) {
	t.Setenv("AWS_DEFAULT_REGION", "")

	jobs := &stubJobs{}
	r := testRunner(jobs)

	name, err := r.Execute(context.Background(), &execution.Request{InputPath: "s3://bucket/nb.ipynb"})
	require.NoError(t, err)

	assert.Equal(t, "papermill-nb-2026-08-24-15-04-05", name)
	require.NotNil(t, jobs.submitted)
	assert.Len(t, jobs.submitted.ProcessingInputs, 1)
}

func TestExecuteResolverFailureIsFatal(t *testing.T) {
	r := New(stubResolver{err: errors.New("no ambient identity")}, &stubJobs{}, execution.Defaults{})

	_, err := r.Execute(context.Background(), &execution.Request{InputPath: "s3://bucket/nb.ipynb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ambient identity")
}

func TestExecuteValidationFailsBeforeSubmit(t *testing.T) {
	jobs := &stubJobs{}
	r := testRunner(jobs)

	_, err := r.Execute(context.Background(), &execution.Request{})
	require.Error(t, err)
	assert.Nil(t, jobs.submitted, "no payload may be produced for an invalid request")
}

func TestPlanDoesNotSubmit(t *testing.T) {
	t.Setenv("AWS_DEFAULT_REGION", "")

	jobs := &stubJobs{}
	r := testRunner(jobs)

	payload, err := r.Plan(context.Background(), &execution.Request{InputPath: "s3://bucket/nb.ipynb"})
	require.NoError(t, err)

	assert.Equal(t, "papermill-nb-2026-08-24-15-04-05", payload.ProcessingJobName)
	assert.Nil(t, jobs.submitted)
}

func TestStop(t *testing.T) {
	jobs := &stubJobs{}
	r := testRunner(jobs)

	require.NoError(t, r.Stop(context.Background(), "papermill-nb-2026-08-24-15-04-05"))
	assert.Equal(t, "papermill-nb-2026-08-24-15-04-05", jobs.stopped)
}
