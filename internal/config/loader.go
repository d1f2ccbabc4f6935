package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix (NBRUN_PORT, ...).
const envPrefix = "NBRUN"

// envAliases map short, operator-friendly variables onto nested keys.
// NBRUN_PORT beats spelling out NBRUN_SERVER_PORT.
var envAliases = map[string]string{
	"server.port":             "NBRUN_PORT",
	"server.host":             "NBRUN_HOST",
	"logging.level":           "NBRUN_LOG_LEVEL",
	"logging.profile":         "NBRUN_LOG_PROFILE",
	"execution.image":         "NBRUN_DEFAULT_IMAGE",
	"execution.role_base":     "NBRUN_DEFAULT_ROLE",
	"execution.instance_type": "NBRUN_INSTANCE_TYPE",
}

// Load resolves configuration from defaults, an optional config file,
// environment, and runtime override maps (highest precedence).
//
// The config file is looked up at $NBRUN_CONFIG, then ./nbrun.yaml.
// A missing file is fine; a malformed one is an error.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nbrun")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	for _, override := range overrides {
		if err := v.MergeConfigMap(override); err != nil {
			return nil, fmt.Errorf("config: merge overrides: %w", err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")

	v.SetDefault("execution.image", "notebook-runner")
	v.SetDefault("execution.role_base", "BasicExecuteNotebookRole")
	v.SetDefault("execution.instance_type", "ml.m5.large")
	v.SetDefault("execution.volume_size_gb", 40)
	v.SetDefault("execution.max_runtime_seconds", 7200)

	v.SetDefault("sweep.rate_limit", 1.0)
}
