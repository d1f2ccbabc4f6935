package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytes_YAML(t *testing.T) {
	doc := `
input_path: s3://bucket/notebooks/weather.ipynb
image: custom-runner
instance_type: ml.m5.xlarge
parameters:
  start: "2026-01-01"
  window: 7
`
	m, err := LoadFromBytes([]byte(doc), "job.yaml")
	require.NoError(t, err)

	assert.Equal(t, "s3://bucket/notebooks/weather.ipynb", m.InputPath)
	assert.Equal(t, "custom-runner", m.Image)
	assert.Equal(t, "ml.m5.xlarge", m.InstanceType)
	assert.Equal(t, "2026-01-01", m.Parameters["start"])
	assert.Equal(t, float64(7), m.Parameters["window"])
}

func TestLoadFromBytes_JSON(t *testing.T) {
	doc := `{"input_path": "s3://bucket/nb.ipynb", "role": "MyRole"}`

	m, err := LoadFromBytes([]byte(doc), "job.json")
	require.NoError(t, err)

	assert.Equal(t, "s3://bucket/nb.ipynb", m.InputPath)
	assert.Equal(t, "MyRole", m.Role)
}

func TestLoadFromBytes_MissingInputPath(t *testing.T) {
	_, err := LoadFromBytes([]byte(`image: custom`), "job.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestLoadFromBytes_UnknownField(t *testing.T) {
	doc := `
input_path: s3://bucket/nb.ipynb
notebok: typo.ipynb
`
	_, err := LoadFromBytes([]byte(doc), "job.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestLoadFromBytes_NonS3Input(t *testing.T) {
	_, err := LoadFromBytes([]byte(`input_path: /tmp/nb.ipynb`), "job.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestLoadFromBytes_Empty(t *testing.T) {
	_, err := LoadFromBytes(nil, "job.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_path: s3://bucket/nb.ipynb\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/nb.ipynb", m.InputPath)
}

func TestLoadFromReader(t *testing.T) {
	m, err := LoadFromReader(strings.NewReader(`{"input_path": "s3://bucket/nb.ipynb"}`), "job.json")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/nb.ipynb", m.InputPath)
}

func TestToRequest(t *testing.T) {
	m := &Manifest{
		InputPath:    "s3://bucket/nb.ipynb",
		Image:        "custom",
		Parameters:   map[string]any{"a": float64(1)},
		InstanceType: "ml.m5.xlarge",
	}

	req := m.ToRequest()
	require.NoError(t, req.Validate())
	assert.Equal(t, m.InputPath, req.InputPath)
	assert.Equal(t, m.Image, req.Image)
	assert.Equal(t, m.Parameters, req.Parameters)
}
