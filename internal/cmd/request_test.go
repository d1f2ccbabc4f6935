package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParamValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{"integer", "7", float64(7)},
		{"float", "0.5", float64(0.5)},
		{"bool", "true", true},
		{"null", "null", nil},
		{"plain string", "2026-08-24", "2026-08-24"},
		{"quoted stays raw", `"7"`, `"7"`},
		{"json object stays raw", `{"a":1}`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseParamValue(tt.raw))
		})
	}
}

func TestParameters_FlagAndFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(file, []byte("start: 2026-01-01\nwindow: 7\n"), 0o644))

	f := requestFlags{
		paramsFile: file,
		params:     []string{"window=14", "region=eu-west-1"},
	}

	params, err := f.parameters()
	require.NoError(t, err)

	assert.Equal(t, "2026-01-01", params["start"])
	assert.Equal(t, float64(14), params["window"], "flag value must win over file value")
	assert.Equal(t, "eu-west-1", params["region"])
}

func TestParameters_MalformedFlag(t *testing.T) {
	f := requestFlags{params: []string{"no-equals-sign"}}

	_, err := f.parameters()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid --param")
}

func TestParameters_Empty(t *testing.T) {
	f := requestFlags{}

	params, err := f.parameters()
	require.NoError(t, err)
	assert.Nil(t, params)
}

func TestExtraArgs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "extra.json")
	require.NoError(t, os.WriteFile(file,
		[]byte(`{"ProcessingResources": {"ClusterConfig": {"VolumeSizeInGB": 100}}}`), 0o644))

	f := requestFlags{extraArgsFile: file}

	extra, err := f.extraArgs()
	require.NoError(t, err)
	assert.Contains(t, extra, "ProcessingResources")
}

func TestExtraArgs_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "extra.json")
	require.NoError(t, os.WriteFile(file, []byte("not json"), 0o644))

	f := requestFlags{extraArgsFile: file}

	_, err := f.extraArgs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Malformed extra-args")
}

func TestBuildRequest_LocalInputRequiresUpload(t *testing.T) {
	f := requestFlags{}

	_, err := f.buildRequest(context.Background(), "./weather.ipynb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--upload")
}

func TestBuildRequest_JobFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
input_path: s3://bucket/notebooks/weather.ipynb
instance_type: ml.m5.large
parameters:
  start: "2026-01-01"
  window: 7
`), 0o644))

	f := requestFlags{
		job:          file,
		instanceType: "ml.m5.xlarge",
		params:       []string{"window=14"},
	}

	req, err := f.buildRequest(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "s3://bucket/notebooks/weather.ipynb", req.InputPath)
	assert.Equal(t, "ml.m5.xlarge", req.InstanceType, "flag must win over file")
	assert.Equal(t, "2026-01-01", req.Parameters["start"])
	assert.Equal(t, float64(14), req.Parameters["window"], "flag parameter must win")
}

func TestBuildRequest_NoInputNoJob(t *testing.T) {
	f := requestFlags{}

	_, err := f.buildRequest(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing input")
}

func TestBuildRequest_FlagsMapped(t *testing.T) {
	f := requestFlags{
		image:        "custom-image",
		role:         "CustomRole",
		instanceType: "ml.m5.xlarge",
		outputPrefix: "s3://bucket/results",
		ruleName:     "nightly",
	}

	req, err := f.buildRequest(context.Background(), "s3://bucket/nb.ipynb")
	require.NoError(t, err)

	assert.Equal(t, "s3://bucket/nb.ipynb", req.InputPath)
	assert.Equal(t, "custom-image", req.Image)
	assert.Equal(t, "CustomRole", req.Role)
	assert.Equal(t, "ml.m5.xlarge", req.InstanceType)
	assert.Equal(t, "s3://bucket/results", req.OutputPrefix)
	assert.Equal(t, "nightly", req.RuleName)
}
