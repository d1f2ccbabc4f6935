// Package runner wires the execution pipeline end to end: resolve the
// caller identity, build the job payload, submit it. The CLI and the
// HTTP API both drive a Runner; neither touches the pieces directly.
package runner

import (
	"context"
	"time"

	"github.com/3leaps/nbrun/pkg/execution"
	"github.com/3leaps/nbrun/pkg/identity"
	"github.com/3leaps/nbrun/pkg/submit"
)

// IdentityResolver resolves the ambient caller identity.
type IdentityResolver interface {
	Resolve(ctx context.Context) (*identity.Caller, error)
}

// JobService is the batch-service surface the runner depends on.
type JobService interface {
	Submit(ctx context.Context, payload *execution.JobPayload) (string, error)
	Describe(ctx context.Context, jobName string) (*submit.JobStatus, error)
	Stop(ctx context.Context, jobName string) error
	List(ctx context.Context, opts submit.ListOptions) (*submit.ListResult, error)
}

// Runner executes notebook execution requests.
//
// A Runner holds no per-request state and is safe for concurrent use.
type Runner struct {
	resolver IdentityResolver
	jobs     JobService
	builder  *execution.Builder
	now      func() time.Time
}

// New creates a runner.
func New(resolver IdentityResolver, jobs JobService, defaults execution.Defaults) *Runner {
	return &Runner{
		resolver: resolver,
		jobs:     jobs,
		builder:  &execution.Builder{Defaults: defaults},
		now:      time.Now,
	}
}

// WithClock overrides the submission clock. Used by tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Resolver exposes the identity resolver, e.g. for health checks.
func (r *Runner) Resolver() IdentityResolver {
	return r.resolver
}

// Execute expands the request into a payload and submits it, returning
// the service-assigned job name.
func (r *Runner) Execute(ctx context.Context, req *execution.Request) (string, error) {
	payload, err := r.Plan(ctx, req)
	if err != nil {
		return "", err
	}
	return r.jobs.Submit(ctx, payload)
}

// Plan expands the request into the payload that Execute would submit,
// without submitting it. The payload is fully assembled and merged;
// callers may inspect or print it.
func (r *Runner) Plan(ctx context.Context, req *execution.Request) (*execution.JobPayload, error) {
	caller, err := r.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return r.builder.Build(caller, req, r.now())
}

// Describe returns the status of a submitted job.
func (r *Runner) Describe(ctx context.Context, jobName string) (*submit.JobStatus, error) {
	return r.jobs.Describe(ctx, jobName)
}

// Stop requests termination of a submitted job.
func (r *Runner) Stop(ctx context.Context, jobName string) error {
	return r.jobs.Stop(ctx, jobName)
}

// List returns submitted jobs, newest first.
func (r *Runner) List(ctx context.Context, opts submit.ListOptions) (*submit.ListResult, error) {
	return r.jobs.List(ctx, opts)
}
