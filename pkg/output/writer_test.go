package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLWriter_WriteSubmission(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	err := w.WriteSubmission(context.Background(), &SubmissionRecord{
		Notebook: "s3://bucket/notebooks/a.ipynb",
		JobName:  "papermill-a-2026-08-24-15-04-05",
	})
	require.NoError(t, err)

	line := strings.TrimSuffix(buf.String(), "\n")
	assert.NotContains(t, line, "\n", "record must be a single line")

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, TypeSubmission, rec.Type)
	assert.Equal(t, "run-123", rec.RunID)
	assert.WithinDuration(t, time.Now().UTC(), rec.TS, time.Minute)

	var sub SubmissionRecord
	require.NoError(t, json.Unmarshal(rec.Data, &sub))
	assert.Equal(t, "papermill-a-2026-08-24-15-04-05", sub.JobName)
}

func TestJSONLWriter_WriteSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	require.NoError(t, w.WriteSummary(context.Background(), &SummaryRecord{
		Matched:   3,
		Submitted: 2,
		Failed:    1,
	}))

	var rec Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, TypeSummary, rec.Type)
}

func TestJSONLWriter_ClosedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")
	require.NoError(t, w.Close())

	err := w.WriteErrorRecord(context.Background(), &ErrorRecord{Code: "X", Message: "y"})
	assert.ErrorIs(t, err, ErrWriterClosed)
}

func TestJSONLWriter_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.WriteJob(ctx, map[string]string{"job_name": "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestJSONLWriter_ConcurrentLinesAtomic(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.WriteSubmission(context.Background(), &SubmissionRecord{
				Notebook: "s3://bucket/nb.ipynb",
				JobName:  "papermill-nb-2026-08-24-15-04-05",
			})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		var rec Record
		assert.NoError(t, json.Unmarshal([]byte(line), &rec))
	}
}

type shortWriter struct {
	buf bytes.Buffer
}

func (s *shortWriter) Write(p []byte) (int, error) {
	if len(p) > 4 {
		p = p[:4]
	}
	return s.buf.Write(p)
}

func TestJSONLWriter_ShortWrites(t *testing.T) {
	sw := &shortWriter{}
	w := NewJSONLWriter(sw, "run-123")

	require.NoError(t, w.WriteErrorRecord(context.Background(), &ErrorRecord{Code: "E", Message: "m"}))

	var rec Record
	assert.NoError(t, json.Unmarshal(sw.buf.Bytes(), &rec))
}

func TestWriteError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &WriteError{Op: "write", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "disk full")
}
