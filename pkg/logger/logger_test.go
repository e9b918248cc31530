package logger

import (
	"bytes"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
)

func TestLogIncludesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", "text")
	SetOutput(&buf)
	t.Cleanup(func() { Init("info", "text") })

	InfoCF("botservice", "delivered", map[string]interface{}{
		"status":      200,
		"delivery_id": "d-1",
	})

	out := buf.String()
	for _, want := range []string{"component=botservice", "delivered", "status=200", "delivery_id=d-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init("warn", "text")
	SetOutput(&buf)
	t.Cleanup(func() { Init("info", "text") })

	InfoC("botservice", "quiet")
	WarnC("botservice", "loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("info line passed a warn-level logger")
	}
	if !strings.Contains(out, "loud") {
		t.Error("warn line missing")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  charmlog.Level
	}{
		{"debug", charmlog.DebugLevel},
		{"INFO", charmlog.InfoLevel},
		{"warning", charmlog.WarnLevel},
		{"error", charmlog.ErrorLevel},
		{"", charmlog.InfoLevel},
		{"bogus", charmlog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
