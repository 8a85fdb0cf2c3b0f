package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("output is not json: %v: %s", err, line)
		}
		out = append(out, entry)
	}
	return out
}

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize text logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	if err := Init(WithFormat(" JSON ")); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if err := Sync(); err != nil {
		t.Errorf("failed to sync logger: %v", err)
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat("json"), WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("sessions").Info(context.Background(), "session completed",
		String("owner", "u1"), Int("streak", 3), Bool("recovery", false), Error(errors.New("boom")))

	entries := decode(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["msg"] != "session completed" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["component"] != "sessions" {
		t.Errorf("unexpected component: %v", entry["component"])
	}
	if entry["owner"] != "u1" || entry["streak"] != 3.0 || entry["error"] != "boom" {
		t.Errorf("unexpected fields: %v", entry)
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go:") {
		t.Errorf("source should point at the caller: %v", entry["source"])
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat("json"), WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := WithFields(context.Background(), String("request_id", "r-1"))
	ctx = WithFields(ctx, String("method", "POST"))
	if got := len(FieldsFrom(ctx)); got != 2 {
		t.Fatalf("expected two bound fields, got %d", got)
	}

	Get().Warn(ctx, "slow request", Error(nil))
	Get().Info(context.Background(), "unbound")

	entries := decode(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0]["request_id"] != "r-1" || entries[0]["method"] != "POST" {
		t.Errorf("bound fields missing: %v", entries[0])
	}
	if _, ok := entries[0]["error"]; ok {
		t.Errorf("a nil error should be dropped: %v", entries[0])
	}
	if _, ok := entries[1]["request_id"]; ok {
		t.Errorf("fields leaked into another context: %v", entries[1])
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	ctx := context.Background()

	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level: %s", buf.String())
	}

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Get().Debug(ctx, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug should be logged: %s", buf.String())
	}

	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info+2":  slog.LevelInfo + 2,
	}
	for in, want := range cases {
		if err := SetLevelString(in); err != nil {
			t.Fatalf("set level %q: %v", in, err)
		}
		if Level() != want {
			t.Errorf("level %q: got %v, want %v", in, Level(), want)
		}
	}

	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "dropped")
	l.Named("x").Warn(WithFields(context.Background(), Int("n", 1)), "dropped")
}
