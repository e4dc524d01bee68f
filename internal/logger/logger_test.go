package logger

import (
	"bytes"
	"context"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/oggyb/match-engine/internal/config"
)

// captureOutput redirects stdout to a buffer during f()
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	return buf.String()
}

func logConfig(level, format, component string, source bool) *config.Config {
	return &config.Config{
		Log: config.LogConfig{
			Level:     level,
			Format:    format,
			Component: component,
			Source:    source,
		},
	}
}

func TestLogger_TextFormat(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("debug", "text", "test", false))
		Info("hello matcher", "key", "value")
	})

	if !strings.Contains(out, "hello matcher") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("info", "json", "json_test", false))
		Info("json log", "foo", "bar")
	})

	if !strings.Contains(out, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", out)
	}
	if !strings.Contains(out, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("error", "text", "", false))
		Info("should not appear")
		Error("should appear")
	})

	if strings.Contains(out, "should not appear") {
		t.Errorf("info log should not appear, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("error log should appear, got: %s", out)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("debug", "text", "", false))
		log := With("req_id", "123")
		log.Info("processing request")
	})

	if !strings.Contains(out, "req_id=123") {
		t.Errorf("expected req_id field, got: %s", out)
	}
}

func TestNew_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: FormatJSON, Component: "engine", Output: &buf})

	l.Info("dropped")
	l.Warn("kept", "user_id", 7)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info should be filtered, got: %s", out)
	}
	if !strings.Contains(out, `"user_id":7`) || !strings.Contains(out, `"component":"engine"`) {
		t.Errorf("expected warn record with attrs, got: %s", out)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := New(Config{Level: "info", Output: &buf}).With("request_id", "abc")

	ctx := IntoContext(context.Background(), scoped)
	FromContext(ctx, nil).Info("scoped")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("expected scoped logger, got: %s", buf.String())
	}

	fallback := Nop()
	if FromContext(context.Background(), fallback) != fallback {
		t.Errorf("expected fallback logger when context has none")
	}
}

func TestNew_TextTimeLayout(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: "info", Format: FormatText, Output: &buf}).Info("tick")

	layout := regexp.MustCompile(`^time="\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}" level=INFO msg=tick`)
	if !layout.MatchString(buf.String()) {
		t.Errorf("expected short time layout, got: %s", buf.String())
	}
}
