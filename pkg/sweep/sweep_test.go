package sweep

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/nbrun/pkg/execution"
	"github.com/3leaps/nbrun/pkg/output"
)

type stubLister struct {
	keys       []string
	err        error
	seenPrefix string
}

func (s *stubLister) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	s.seenPrefix = prefix
	return s.keys, s.err
}

type stubExecutor struct {
	inputs  []string
	failOn  string
	failErr error
}

func (s *stubExecutor) Execute(ctx context.Context, req *execution.Request) (string, error) {
	s.inputs = append(s.inputs, req.InputPath)
	if s.failOn != "" && strings.Contains(req.InputPath, s.failOn) {
		return "", s.failErr
	}
	return "papermill-job", nil
}

func TestSweepRun(t *testing.T) {
	lister := &stubLister{keys: []string{
		"notebooks/weather.ipynb",
		"notebooks/2026/trends.ipynb",
		"notebooks/readme.txt",
	}}
	executor := &stubExecutor{}
	var buf bytes.Buffer

	s := New(lister, executor, output.NewJSONLWriter(&buf, "run-1"), 100)
	pattern, err := ParsePattern("s3://bucket/notebooks/**/*.ipynb")
	require.NoError(t, err)

	sum, err := s.Run(context.Background(), pattern, &execution.Request{
		InstanceType: "ml.m5.xlarge",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 2, sum.Submitted)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, "notebooks/", lister.seenPrefix)
	assert.Equal(t, []string{
		"s3://bucket/notebooks/weather.ipynb",
		"s3://bucket/notebooks/2026/trends.ipynb",
	}, executor.inputs)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3, "two submissions plus a summary")

	var last output.Record
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, output.TypeSummary, last.Type)
}

func TestSweepRunPartialFailure(t *testing.T) {
	lister := &stubLister{keys: []string{
		"notebooks/good.ipynb",
		"notebooks/bad.ipynb",
	}}
	executor := &stubExecutor{failOn: "bad", failErr: errors.New("access denied")}
	var buf bytes.Buffer

	s := New(lister, executor, output.NewJSONLWriter(&buf, "run-1"), 100)
	pattern, err := ParsePattern("s3://bucket/notebooks/*.ipynb")
	require.NoError(t, err)

	sum, err := s.Run(context.Background(), pattern, &execution.Request{})
	require.NoError(t, err, "individual submit failures must not abort the sweep")

	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 1, sum.Submitted)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, buf.String(), "SUBMIT_FAILED")
}

func TestSweepRunListFailure(t *testing.T) {
	lister := &stubLister{err: errors.New("no such bucket")}
	var buf bytes.Buffer

	s := New(lister, &stubExecutor{}, output.NewJSONLWriter(&buf, "run-1"), 100)
	pattern, err := ParsePattern("s3://bucket/notebooks/*.ipynb")
	require.NoError(t, err)

	_, err = s.Run(context.Background(), pattern, &execution.Request{})
	require.Error(t, err)
}

func TestSweepTemplateNotMutated(t *testing.T) {
	lister := &stubLister{keys: []string{"notebooks/a.ipynb"}}
	executor := &stubExecutor{}
	var buf bytes.Buffer

	s := New(lister, executor, output.NewJSONLWriter(&buf, "run-1"), 100)
	pattern, err := ParsePattern("s3://bucket/notebooks/*.ipynb")
	require.NoError(t, err)

	template := &execution.Request{Image: "custom"}
	_, err = s.Run(context.Background(), pattern, template)
	require.NoError(t, err)

	assert.Empty(t, template.InputPath)
}
