package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/litescript/ls-orrery/internal/body"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{" warn ", LevelWarn},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn)
	l.SetOutput(&buf)

	l.Info("hidden")
	l.Warn("shown %d", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 1") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNamedSharesSink(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelInfo)
	root.SetOutput(&buf)
	child := root.Named("scene").Named("resolver")

	child.Info("pass done")
	if !strings.Contains(buf.String(), "[INFO] scene.resolver: pass done") {
		t.Errorf("named line = %q", buf.String())
	}

	root.SetLevel(LevelError)
	buf.Reset()
	child.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("child ignored parent level: %q", buf.String())
	}
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug)
	l.SetOutput(&buf)
	r := NewReporter(l)

	r.Report(body.Issue{Severity: body.SeverityError, BodyID: "ghost", Err: body.ErrMissingPrimary})
	r.Report(body.Issue{Severity: body.SeverityWarning, BodyID: "comet", Err: errors.New("eccentricity clamped")})

	out := buf.String()
	if !strings.Contains(out, "[ERROR] error: ghost: missing primary") {
		t.Errorf("error issue not logged: %q", out)
	}
	if !strings.Contains(out, "[WARN] warning: comet: eccentricity clamped") {
		t.Errorf("warning issue not logged: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	if l.Enabled(LevelError) {
		t.Error("discard logger should not be enabled")
	}
}
