// Package sweep submits one execution job per notebook matching a glob
// pattern over an S3 prefix.
package sweep

import (
	"errors"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/3leaps/nbrun/pkg/s3uri"
)

// Errors returned by pattern parsing.
var (
	// ErrInvalidPattern is returned when a glob cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// PatternError wraps pattern-related errors with context.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Pattern is a compiled glob over S3 object keys in one bucket.
//
// The pattern string is an S3 URI whose key part may contain glob
// metacharacters, e.g. "s3://bucket/notebooks/**/*.ipynb". A Pattern
// is safe for concurrent use after creation.
type Pattern struct {
	// Bucket is the bucket the pattern addresses.
	Bucket string

	// Glob is the key-relative glob.
	Glob string

	// Prefix is the longest static key prefix, used to bound the
	// listing.
	Prefix string
}

// ParsePattern compiles an S3 URI glob.
func ParsePattern(raw string) (*Pattern, error) {
	uri, err := s3uri.Parse(raw)
	if err != nil {
		return nil, &PatternError{Pattern: raw, Err: err}
	}
	if uri.Key == "" {
		return nil, &PatternError{Pattern: raw, Err: ErrInvalidPattern}
	}
	if !doublestar.ValidatePattern(uri.Key) {
		return nil, &PatternError{Pattern: raw, Err: ErrInvalidPattern}
	}

	return &Pattern{
		Bucket: uri.Bucket,
		Glob:   uri.Key,
		Prefix: derivePrefix(uri.Key),
	}, nil
}

// Match reports whether the bucket-relative key matches the glob.
func (p *Pattern) Match(key string) bool {
	ok, err := doublestar.Match(p.Glob, key)
	return err == nil && ok
}

// derivePrefix extracts the longest static prefix from a glob pattern,
// truncated to the last complete path segment. The prefix bounds the
// bucket listing so a sweep never scans the whole bucket for patterns
// like "notebooks/2026/**/*.ipynb".
func derivePrefix(pattern string) string {
	metaIdx := strings.IndexAny(pattern, "*?[{")
	if metaIdx == -1 {
		return pattern
	}
	if metaIdx == 0 {
		return ""
	}

	prefix := pattern[:metaIdx]
	if lastSlash := strings.LastIndex(prefix, "/"); lastSlash >= 0 {
		return prefix[:lastSlash+1]
	}
	return ""
}
