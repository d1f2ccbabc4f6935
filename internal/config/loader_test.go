package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		// Logging defaults
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "STRUCTURED", cfg.Logging.Profile)

		// Execution defaults
		assert.Equal(t, "notebook-runner", cfg.Execution.Image)
		assert.Equal(t, "BasicExecuteNotebookRole", cfg.Execution.RoleBase)
		assert.Equal(t, "ml.m5.large", cfg.Execution.InstanceType)
		assert.Equal(t, 40, cfg.Execution.VolumeSizeGB)
		assert.Equal(t, 7200, cfg.Execution.MaxRuntimeSeconds)

		// Sweep defaults
		assert.Equal(t, 1.0, cfg.Sweep.RateLimit)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		overrides := map[string]any{
			"server": map[string]any{
				"port": 9000,
				"host": "0.0.0.0",
			},
			"logging": map[string]any{
				"level": "debug",
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Logging.Level)

		// Non-overridden values remain default
		assert.Equal(t, "STRUCTURED", cfg.Logging.Profile)
		assert.Equal(t, "notebook-runner", cfg.Execution.Image)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("NBRUN_PORT", "3000")
		t.Setenv("NBRUN_LOG_LEVEL", "warn")
		t.Setenv("NBRUN_DEFAULT_IMAGE", "team-runner")
		t.Setenv("NBRUN_INSTANCE_TYPE", "ml.c5.xlarge")

		cfg, err := Load(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "team-runner", cfg.Execution.Image)
		assert.Equal(t, "ml.c5.xlarge", cfg.Execution.InstanceType)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nbrun.yaml")
		content := []byte("server:\n  port: 7070\nexecution:\n  max_runtime_seconds: 600\n")
		require.NoError(t, os.WriteFile(path, content, 0o644))
		t.Setenv("NBRUN_CONFIG", path)

		cfg, err := Load(ctx)
		require.NoError(t, err)

		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, 600, cfg.Execution.MaxRuntimeSeconds)
		// Untouched values keep defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
	})

	t.Run("MalformedConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nbrun.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
		t.Setenv("NBRUN_CONFIG", path)

		_, err := Load(ctx)
		require.Error(t, err)
	})
}

// ExecutionDefaults converts the execution section into builder
// defaults; keep the mapping covered so config drift shows up here.
func TestExecutionDefaultsMapping(t *testing.T) {
	cfg := &Config{
		Execution: ExecutionConfig{
			Image:             "x",
			RoleBase:          "R",
			InstanceType:      "ml.t3.medium",
			VolumeSizeGB:      10,
			MaxRuntimeSeconds: 60,
		},
	}

	d := cfg.ExecutionDefaults()
	assert.Equal(t, "x", d.Image)
	assert.Equal(t, "R", d.RoleBase)
	assert.Equal(t, "ml.t3.medium", d.InstanceType)
	assert.Equal(t, 10, d.VolumeSizeGB)
	assert.Equal(t, 60, d.MaxRuntimeSeconds)
}
