package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: "info", want: zapcore.InfoLevel},
		{level: "warn", want: zapcore.WarnLevel},
		{level: "error", want: zapcore.ErrorLevel},
		{level: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Level = tt.level

		logger, err := NewLogger(cfg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewLogger(level=%q): expected error", tt.level)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewLogger(level=%q): unexpected error: %v", tt.level, err)
			continue
		}
		if got := logger.Level(); got != tt.want {
			t.Errorf("NewLogger(level=%q): level = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestVerbosityAdjustment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "info"
	logger := MustNewLogger(cfg)

	if !logger.IncreaseVerbosity() {
		t.Fatal("expected increase from info to debug to succeed")
	}
	if logger.Level() != zapcore.DebugLevel {
		t.Fatalf("expected debug level, got %v", logger.Level())
	}
	if logger.IncreaseVerbosity() {
		t.Fatal("expected increase at debug level to fail")
	}

	for logger.Level() < zapcore.ErrorLevel {
		if !logger.DecreaseVerbosity() {
			t.Fatalf("decrease stalled at %v", logger.Level())
		}
	}
	if logger.DecreaseVerbosity() {
		t.Fatal("expected decrease at error level to fail")
	}
}

func TestProductionEncoding(t *testing.T) {
	cfg := Config{
		Level:            "info",
		Environment:      EnvironmentProduction,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if _, err := NewLogger(cfg); err != nil {
		t.Fatalf("production logger failed to build: %v", err)
	}
}
