package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: got %v want %v", in, got, want)
		}
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf}).WithComponent(ComponentAggregator)
	l.Info("hello", FieldCount, 3)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line[FieldComponent] != ComponentAggregator || line[FieldCount] != float64(3) {
		t.Fatalf("unexpected line: %v", line)
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	sl.LogError(context.Background(), "failed", errors.New("boom"), ComponentRemote, OpCreate, NewFields().With(FieldExpenseID, "9"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line[FieldError] != "boom" || line[FieldOperation] != OpCreate || line[FieldComponent] != ComponentRemote || line[FieldExpenseID] != "9" {
		t.Fatalf("unexpected line: %v", line)
	}
}

func TestScopedPrefersContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf}).With("command", "moneymanager expenses add")
	fallback := Discard().WithComponent(ComponentAggregator)

	if got := Scoped(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback without a context logger")
	}

	ctx := WithLogger(context.Background(), base)
	Scoped(ctx, fallback).InfoContext(ctx, "saved")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line[FieldComponent] != ComponentAggregator || line["command"] != "moneymanager expenses add" {
		t.Fatalf("unexpected line: %v", line)
	}
}
