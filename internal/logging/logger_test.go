package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"sfmpipe/internal/config"
	"sfmpipe/internal/logging"
	"sfmpipe/internal/services"
)

func TestConsoleLoggerWritesStageAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(services.WithRunID(context.Background(), "run-42"), "camera_init")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline")).Info(
		"stage started",
		logging.Int("image_count", 12),
		logging.String("output", "/tmp/out dir"),
	)

	line := buf.String()
	for _, fragment := range []string{"INFO", "[pipeline]", "camera_init", "stage started", "image_count=12", "run_id=run-42", `output="/tmp/out dir"`} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no ANSI escapes for non-terminal writer, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerColorOverride(t *testing.T) {
	var buf bytes.Buffer
	color := true
	logger, err := logging.New(logging.Options{Writer: &buf, Color: &color})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Error("stage failed", logging.Error(errors.New("exit status 1")))
	if !strings.Contains(buf.String(), "\x1b[31mERROR") {
		t.Fatalf("expected red error label, got %q", buf.String())
	}
}

func TestConsoleLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Debug("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
}

func TestJSONLoggerShape(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("stage completed", logging.Stage("sfm"), logging.Event("stage_complete"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["msg"] != "stage completed" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
	if payload[logging.FieldStage] != "sfm" {
		t.Fatalf("unexpected stage: %v", payload[logging.FieldStage])
	}
	if payload[logging.FieldEventType] != "stage_complete" {
		t.Fatalf("unexpected event type: %v", payload[logging.FieldEventType])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigOverrides(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer

	logger, err := logging.NewFromConfig(&cfg, logging.Overrides{Writer: &buf, Verbose: true, Silent: true})
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected verbose to enable debug even when silent is set")
	}

	quiet, err := logging.NewFromConfig(&cfg, logging.Overrides{Writer: &buf})
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if quiet.Enabled(context.Background(), slog.LevelDebug) || !quiet.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected configured info level by default")
	}

	silent, err := logging.NewFromConfig(&cfg, logging.Overrides{Writer: &buf, Silent: true})
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if silent.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected silent to raise the level to warn")
	}
	silent.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("expected output on the override writer, got %q", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	logger.Info("discarded")
	if logger.Enabled(context.Background(), 8) {
		t.Fatal("nop logger should not be enabled")
	}
}

func TestIsTerminalRejectsNonTTYWriters(t *testing.T) {
	if logging.IsTerminal(&bytes.Buffer{}) {
		t.Fatal("buffer is not a terminal")
	}
	file, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer file.Close()
	if logging.IsTerminal(file) {
		t.Fatal("regular file is not a terminal")
	}
}
