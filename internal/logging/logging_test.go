package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestComponentTagsRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := Component(NewWithWriter(&buf, "info"), "recommend")
	logger.Debug("hidden")
	logger.Info("ranked", "count", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %s", out)
	}
	if !strings.Contains(out, "component=recommend") || !strings.Contains(out, "count=3") {
		t.Fatalf("unexpected output: %s", out)
	}
}
