package sweep

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/3leaps/nbrun/pkg/execution"
	"github.com/3leaps/nbrun/pkg/output"
	"github.com/3leaps/nbrun/pkg/s3uri"
)

// DefaultRateLimit is the submissions-per-second cap used when the
// configuration does not set one. CreateProcessingJob is throttled
// well below this by the service anyway.
const DefaultRateLimit = 2.0

// KeyLister lists object keys under a bucket prefix.
type KeyLister interface {
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Executor submits one execution request.
type Executor interface {
	Execute(ctx context.Context, req *execution.Request) (string, error)
}

// Summary totals one sweep run.
type Summary struct {
	// Matched is the number of notebooks the pattern matched.
	Matched int

	// Submitted is the number of jobs successfully created.
	Submitted int

	// Failed is the number of submissions that errored.
	Failed int
}

// Sweeper submits executions for every notebook matching a pattern.
type Sweeper struct {
	lister   KeyLister
	executor Executor
	limiter  *rate.Limiter
	writer   output.Writer
}

// New creates a sweeper. rateLimit caps submissions per second; zero or
// negative uses DefaultRateLimit.
func New(lister KeyLister, executor Executor, writer output.Writer, rateLimit float64) *Sweeper {
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}
	return &Sweeper{
		lister:   lister,
		executor: executor,
		limiter:  rate.NewLimiter(rate.Limit(rateLimit), 1),
		writer:   writer,
	}
}

// Run lists keys under the pattern's static prefix, submits one job
// per matching notebook using template for everything but the input
// path, and emits one JSONL record per submission.
//
// Individual submission failures are recorded and counted but do not
// abort the sweep. Run returns an error only for listing failures and
// context cancellation.
func (s *Sweeper) Run(ctx context.Context, pattern *Pattern, template *execution.Request) (*Summary, error) {
	start := time.Now()

	keys, err := s.lister.ListKeys(ctx, pattern.Bucket, pattern.Prefix)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for _, key := range keys {
		if !pattern.Match(key) {
			continue
		}
		sum.Matched++

		if err := s.limiter.Wait(ctx); err != nil {
			return sum, err
		}

		uri := &s3uri.URI{Bucket: pattern.Bucket, Key: key}
		req := *template
		req.InputPath = uri.String()

		jobName, err := s.executor.Execute(ctx, &req)
		if err != nil {
			sum.Failed++
			_ = s.writer.WriteErrorRecord(ctx, &output.ErrorRecord{
				Code:     "SUBMIT_FAILED",
				Message:  err.Error(),
				Notebook: req.InputPath,
			})
			continue
		}

		sum.Submitted++
		if err := s.writer.WriteSubmission(ctx, &output.SubmissionRecord{
			Notebook: req.InputPath,
			JobName:  jobName,
		}); err != nil {
			return sum, err
		}
	}

	err = s.writer.WriteSummary(ctx, &output.SummaryRecord{
		Matched:   sum.Matched,
		Submitted: sum.Submitted,
		Failed:    sum.Failed,
		Duration:  time.Since(start),
	})
	return sum, err
}
