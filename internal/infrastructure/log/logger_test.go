package log

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo}, // 默认值
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("CHATVAULT_LOG_LEVEL", "warn")
	t.Setenv("CHATVAULT_LOG_FORMAT", "json")

	cfg := NewConfigFromEnv()
	if cfg.Level != "warn" {
		t.Errorf("expected level warn, got %s", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected format json, got %s", cfg.Format)
	}
}

func TestNewConfigFromEnv_Development(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg := NewConfigFromEnv()
	if cfg.Level != "debug" {
		t.Errorf("expected debug level in development, got %s", cfg.Level)
	}
	if !cfg.AddSource {
		t.Error("expected AddSource enabled in development")
	}
}

func TestInit(t *testing.T) {
	t.Setenv("ENV", "production")
	os.Unsetenv("CHATVAULT_LOG_LEVEL")

	Init(nil)

	if GetLogger() == nil {
		t.Error("expected non-nil logger")
	}

	Init(&Config{Level: "debug", Format: "console", Output: "stdout"})
	if !IsDebugMode() {
		t.Error("expected debug mode")
	}
}

func TestNewModuleLogger(t *testing.T) {
	Init(nil)

	logger := NewModuleLogger("codec", "decoder")
	if logger == nil {
		t.Error("expected non-nil logger")
	}

	// 验证模块字段会出现在输出中
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	testLogger := slog.New(handler).With("module", "codec", "component", "decoder")

	testLogger.Info("decode finished")

	out := buf.String()
	if !strings.Contains(out, "decode finished") || !strings.Contains(out, "module=codec") {
		t.Errorf("unexpected log output: %s", out)
	}
}
