package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesObjectField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core))

	log.ErrorObj("babel operation failed", "babel_error", map[string]any{"status": 500})
	log.DebugObj("done", "babel_operation", "get_feeds")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel || entries[0].Message != "babel operation failed" {
		t.Fatalf("unexpected entry %#v", entries[0])
	}
	if _, ok := entries[0].ContextMap()["babel_error"]; !ok {
		t.Fatalf("missing babel_error field: %#v", entries[0].ContextMap())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		" info ":  zapcore.InfoLevel,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Fatalf("parseLevel(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
}

func TestInitToRejectsUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitTo("verbose", &buf)
	if err == nil || !strings.Contains(err.Error(), `unknown log level "verbose"`) {
		t.Fatalf("expected unknown level error, got %v", err)
	}
	if log != nil {
		t.Fatalf("no logger expected on error")
	}
}

func TestNilZapLoggerIsSafe(t *testing.T) {
	log := New(nil)
	log.InfoObj("ignored", "k", 1)
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestInitToWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitTo("warn", &buf)
	if err != nil {
		t.Fatalf("InitTo: %v", err)
	}
	log.InfoObj("hidden", "k", 1)
	log.WarnObj("shown", "target_id", "story-1")
	_ = log.Close()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info entry should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"target_id":"story-1"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}
