// Package observability constructs the process loggers.
//
// Two profiles exist: CONSOLE for interactive CLI use (human-readable,
// stderr only so stdout stays clean for JSON output) and STRUCTURED
// for the server (JSON lines). Both are zap loggers; commands and
// handlers use the package-level loggers directly.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level loggers. Initialized to sane defaults so early code
// paths can log before Init runs with loaded configuration.
var (
	// CLILogger is used by command implementations. Writes to stderr.
	CLILogger = mustBuild("info", "CONSOLE")

	// ServerLogger is used by the HTTP server and handlers.
	ServerLogger = mustBuild("info", "STRUCTURED")
)

// Init rebuilds the package loggers from configuration.
func Init(level, profile string) error {
	cli, err := build(level, "CONSOLE")
	if err != nil {
		return err
	}
	srv, err := build(level, profile)
	if err != nil {
		return err
	}
	CLILogger = cli
	ServerLogger = srv
	return nil
}

// Sync flushes buffered log entries. Called on process exit.
func Sync() {
	_ = CLILogger.Sync()
	_ = ServerLogger.Sync()
}

func build(level, profile string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if profile == "CONSOLE" {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

func mustBuild(level, profile string) *zap.Logger {
	logger, err := build(level, profile)
	if err != nil {
		panic(err)
	}
	return logger
}
