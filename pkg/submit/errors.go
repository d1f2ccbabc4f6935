package submit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Sentinel errors for submission operations.
var (
	// ErrJobNotFound indicates the named job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrNameInUse indicates a job with the generated name already exists.
	ErrNameInUse = errors.New("job name in use")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrQuotaExceeded indicates a service resource limit was hit.
	ErrQuotaExceeded = errors.New("resource limit exceeded")

	// ErrThrottled indicates the request was rate limited by the service.
	ErrThrottled = errors.New("request throttled")
)

// ServiceError wraps a batch-service error with operation context. The
// underlying service error is preserved verbatim; classification to a
// sentinel is additive and used only for exit codes and logging.
type ServiceError struct {
	// Op is the operation that failed (e.g., "Submit", "Describe").
	Op string

	// JobName is the processing job name, if known.
	JobName string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.JobName != "" {
		return fmt.Sprintf("sagemaker %s: %s: %v", e.Op, e.JobName, e.Err)
	}
	return fmt.Sprintf("sagemaker %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsJobNotFound returns true if the error indicates a missing job.
func IsJobNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}

// IsNameInUse returns true if the error indicates a name collision.
func IsNameInUse(err error) bool {
	return errors.Is(err, ErrNameInUse)
}

// IsAccessDenied returns true if the error indicates insufficient permissions.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsQuotaExceeded returns true if the error indicates a service limit.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsThrottled returns true if the error was rate limited.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// wrapError converts service errors to ServiceErrors with appropriate
// sentinels. The original error stays reachable through Unwrap.
func wrapError(op, jobName string, err error) error {
	wrapped := &ServiceError{Op: op, JobName: jobName, Err: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFound", "ValidationException":
			if strings.Contains(apiErr.ErrorMessage(), "Could not find") ||
				strings.Contains(apiErr.ErrorMessage(), "does not exist") {
				wrapped.Err = fmt.Errorf("%w: %v", ErrJobNotFound, err)
			}
		case "ResourceInUse":
			wrapped.Err = fmt.Errorf("%w: %v", ErrNameInUse, err)
		case "ResourceLimitExceeded":
			wrapped.Err = fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case "AccessDeniedException", "AccessDenied":
			wrapped.Err = fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case "ThrottlingException", "Throttling", "TooManyRequestsException":
			wrapped.Err = fmt.Errorf("%w: %v", ErrThrottled, err)
		}
	}

	return wrapped
}
