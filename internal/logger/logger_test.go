package logger

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO", "bogus"} {
		if New(level) == nil {
			t.Errorf("New(%q) returned nil", level)
		}
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    string
		want        bool
	}{
		{"debug logs at debug level", "debug", "debug", true},
		{"info logs at debug level", "debug", "info", true},
		{"debug suppressed at info level", "info", "debug", false},
		{"info logs at info level", "info", "info", true},
		{"warn suppressed at error level", "error", "warn", false},
		{"error always logs", "debug", "error", true},
		{"unknown config level defaults to info", "bogus", "debug", false},
		{"unknown target level always logs", "info", "bogus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.configLevel).(*implLogger)
			if got := l.shouldLog(tt.logLevel); got != tt.want {
				t.Errorf("shouldLog(%q) = %v, want %v", tt.logLevel, got, tt.want)
			}
		})
	}
}

func TestOutputFiltering(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	l := &implLogger{
		logger: log.New(&buf, "", 0),
		level:  "info",
	}

	l.Debug(ctx, "hidden %s", "detail")
	l.Info(ctx, "session %s started", "20240115_093000")
	l.Warn(ctx, "slow stage")
	l.Error(ctx, "stage failed: %v", context.DeadlineExceeded)

	out := buf.String()
	if strings.Contains(out, "[DEBUG]") {
		t.Errorf("debug output not suppressed at info level: %q", out)
	}
	if !strings.Contains(out, "[INFO] session 20240115_093000 started") {
		t.Errorf("missing info line: %q", out)
	}
	if !strings.Contains(out, "[WARN] slow stage") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] stage failed: context deadline exceeded") {
		t.Errorf("missing error line: %q", out)
	}
}
