package logging

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
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v want %v", in, got, want)
		}
	}
}

func TestStartSpanEnrichesLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "debug")

	ctx := WithLogger(context.Background(), base)
	ctx, parent := StartSpan(ctx, "parent")
	childCtx, child := StartSpan(ctx, "child")

	if TraceIDFromContext(childCtx) != TraceIDFromContext(ctx) {
		t.Fatal("expected child span to share trace id")
	}
	if SpanIDFromContext(childCtx) == SpanIDFromContext(ctx) {
		t.Fatal("expected child span to have its own span id")
	}

	child.Fail(errors.New("boom"))
	child.End()
	parent.End()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["span_name"] != "child" || entry["parent_span_id"] == nil || entry["error"] != "boom" {
		t.Fatalf("unexpected child span entry: %v", entry)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger")
	}
}
