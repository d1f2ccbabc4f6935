// Package s3uri parses and derives S3 object URIs.
//
// The execution core never touches object storage directly; it only
// constructs URIs. This package keeps that construction in one place so
// defaulting (output prefix from input location) and the CLI sweep
// (pattern prefixes) share the same parsing rules.
package s3uri

import (
	"errors"
	"fmt"
	"strings"
)

// URI parsing errors
var (
	// ErrInvalidURI indicates the URI could not be parsed.
	ErrInvalidURI = errors.New("invalid URI")

	// ErrUnsupportedScheme indicates the URI scheme is not s3.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrMissingBucket indicates the URI is missing a bucket name.
	ErrMissingBucket = errors.New("missing bucket name")
)

// URI represents a parsed S3 URI.
//
// Example URIs:
//   - s3://bucket/path/notebook.ipynb
//   - s3://bucket/prefix/
//   - s3://bucket/notebooks/**/*.ipynb (pattern form, sweep only)
type URI struct {
	// Bucket is the bucket name.
	Bucket string

	// Key is the object key or prefix. May be empty for bucket root.
	Key string
}

// String returns the URI in canonical form.
func (u *URI) String() string {
	if u.Key != "" {
		return fmt.Sprintf("s3://%s/%s", u.Bucket, u.Key)
	}
	return fmt.Sprintf("s3://%s/", u.Bucket)
}

// Base returns the final path segment of the key.
// Returns "" for prefix URIs (trailing slash) and bucket roots.
func (u *URI) Base() string {
	if u.Key == "" || strings.HasSuffix(u.Key, "/") {
		return ""
	}
	if idx := strings.LastIndex(u.Key, "/"); idx >= 0 {
		return u.Key[idx+1:]
	}
	return u.Key
}

// Dir returns the URI of the key's containing prefix, without a trailing
// slash. For a key at the bucket root the result is s3://bucket.
//
// This mirrors path.Dir semantics on the key portion and is what output
// prefix defaulting uses: Dir("s3://b/nb/a.ipynb") == "s3://b/nb".
func (u *URI) Dir() string {
	idx := strings.LastIndex(u.Key, "/")
	if idx <= 0 {
		return "s3://" + u.Bucket
	}
	return fmt.Sprintf("s3://%s/%s", u.Bucket, u.Key[:idx])
}

// Join appends a path segment to the URI, inserting a slash as needed.
func (u *URI) Join(segment string) string {
	if u.Key == "" {
		return fmt.Sprintf("s3://%s/%s", u.Bucket, segment)
	}
	return fmt.Sprintf("s3://%s/%s/%s", u.Bucket, strings.TrimSuffix(u.Key, "/"), segment)
}

// Parse parses an S3 URI into its components.
//
// Supported formats:
//   - s3://bucket
//   - s3://bucket/
//   - s3://bucket/key
//   - s3://bucket/prefix/
//
// Glob metacharacters are not interpreted here; callers that accept
// patterns (sweep) split prefix and pattern themselves.
func Parse(uri string) (*URI, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: empty URI", ErrInvalidURI)
	}

	schemeEnd := strings.Index(uri, "://")
	if schemeEnd == -1 {
		return nil, fmt.Errorf("%w: missing scheme (expected s3://...)", ErrInvalidURI)
	}

	scheme := strings.ToLower(uri[:schemeEnd])
	if scheme != "s3" {
		return nil, fmt.Errorf("%w: %s (supported: s3)", ErrUnsupportedScheme, scheme)
	}

	remainder := uri[schemeEnd+3:]
	if remainder == "" {
		return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, uri)
	}

	var bucket, key string
	slashIdx := strings.Index(remainder, "/")
	if slashIdx == -1 {
		bucket = remainder
	} else {
		bucket = remainder[:slashIdx]
		key = remainder[slashIdx+1:]
	}

	if bucket == "" {
		return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, uri)
	}

	return &URI{Bucket: bucket, Key: key}, nil
}
