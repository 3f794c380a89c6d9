package logging_test

import (
	"log/slog"
	"testing"

	"github.com/agentdeck/agentdeck/pkg/logging"
)

func TestConfig_Finalize_Defaults(t *testing.T) {
	cfg := logging.Config{}

	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Level != logging.LevelInfo {
		t.Errorf("Level = %q, want %q", cfg.Level, logging.LevelInfo)
	}
	if cfg.Format != logging.FormatText {
		t.Errorf("Format = %q, want %q", cfg.Format, logging.FormatText)
	}
}

func TestConfig_Finalize_EnvOverride(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "debug")
	t.Setenv("TEST_LOG_FORMAT", "json")

	cfg := logging.Config{}
	err := cfg.Finalize(&logging.Env{
		Level:  "TEST_LOG_LEVEL",
		Format: "TEST_LOG_FORMAT",
	})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Level != logging.LevelDebug {
		t.Errorf("Level = %q, want debug", cfg.Level)
	}
	if cfg.Format != logging.FormatJSON {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
}

func TestConfig_Finalize_InvalidLevel(t *testing.T) {
	cfg := logging.Config{Level: "verbose"}

	if err := cfg.Finalize(nil); err == nil {
		t.Error("Finalize() should reject invalid level")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := logging.Config{Level: logging.LevelInfo, Format: logging.FormatText}
	cfg.Merge(&logging.Config{Level: logging.LevelError})

	if cfg.Level != logging.LevelError {
		t.Errorf("Level = %q, want error", cfg.Level)
	}
	if cfg.Format != logging.FormatText {
		t.Errorf("Format = %q, want text (unchanged)", cfg.Format)
	}
}

func TestLevel_ToSlogLevel(t *testing.T) {
	tests := []struct {
		level logging.Level
		want  slog.Level
	}{
		{logging.LevelDebug, slog.LevelDebug},
		{logging.LevelInfo, slog.LevelInfo},
		{logging.LevelWarn, slog.LevelWarn},
		{logging.LevelError, slog.LevelError},
		{logging.Level("bogus"), slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := tt.level.ToSlogLevel(); got != tt.want {
			t.Errorf("ToSlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
