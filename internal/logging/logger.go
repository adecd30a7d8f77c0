// Package logging provides structured logging utilities for the Haven server.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvironmentProduction is for production deployments with JSON logging.
	EnvironmentProduction Environment = "production"

	// EnvironmentDevelopment is for development with console logging.
	EnvironmentDevelopment Environment = "development"
)

// Config holds the configuration for the logger.
type Config struct {
	// Level is the minimum enabled logging level (debug, info, warn, error).
	Level string

	// Environment determines the log format (production = JSON, development = console).
	Environment Environment

	// OutputPaths is a list of URLs or file paths to write logging output to.
	OutputPaths []string

	// ErrorOutputPaths is a list of URLs or file paths to write internal logger errors to.
	ErrorOutputPaths []string

	// DisableCaller disables automatic caller information.
	DisableCaller bool

	// DisableStacktrace disables automatic stacktrace capturing.
	DisableStacktrace bool
}

// DefaultConfig returns a default configuration for development.
func DefaultConfig() Config {
	return Config{
		Level:             "info",
		Environment:       EnvironmentDevelopment,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     false,
		DisableStacktrace: false,
	}
}

// Logger bundles a zap logger with its dynamically adjustable level so
// that verbosity can be changed at runtime without rebuilding the logger.
type Logger struct {
	*zap.Logger

	level zap.AtomicLevel
}

// NewLogger creates a new logger based on the provided configuration.
func NewLogger(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Environment == EnvironmentProduction {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	atomic := zap.NewAtomicLevelAt(level)

	zapConfig := zap.Config{
		Level:             atomic,
		Development:       cfg.Environment == EnvironmentDevelopment,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encodingFromEnvironment(cfg.Environment),
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{Logger: logger, level: atomic}, nil
}

// Level returns the currently enabled minimum level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// IncreaseVerbosity lowers the minimum enabled level by one step
// (e.g. info to debug). It returns false if the logger already runs at
// maximum verbosity.
func (l *Logger) IncreaseVerbosity() bool {
	cur := l.level.Level()
	if cur <= zapcore.DebugLevel {
		return false
	}
	l.level.SetLevel(cur - 1)
	return true
}

// DecreaseVerbosity raises the minimum enabled level by one step
// (e.g. info to warn). It returns false if the logger is already at
// error level, the least verbose setting supported at runtime.
func (l *Logger) DecreaseVerbosity() bool {
	cur := l.level.Level()
	if cur >= zapcore.ErrorLevel {
		return false
	}
	l.level.SetLevel(cur + 1)
	return true
}

// NewNop returns a Logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
}

// Wrap adapts an existing zap logger, for tests that observe log output.
func Wrap(logger *zap.Logger, level zapcore.Level) *Logger {
	return &Logger{Logger: logger, level: zap.NewAtomicLevelAt(level)}
}

// MustNewLogger creates a new logger and panics if there's an error.
// This should only be used during application startup.
func MustNewLogger(cfg Config) *Logger {
	logger, err := NewLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}

// encodingFromEnvironment returns the encoding format based on environment.
func encodingFromEnvironment(env Environment) string {
	if env == EnvironmentProduction {
		return "json"
	}
	return "console"
}

// ParseLevel converts a string level to zapcore.Level.
func ParseLevel(level string) (zapcore.Level, error) {
	return zapcore.ParseLevel(strings.ToLower(level))
}
