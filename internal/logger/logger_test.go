package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger resets the logger to default state for test isolation
func resetLogger() {
	Init(Options{})
}

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		logged   []string
		dropped  []string
		debugOut bool
	}{
		{
			name:    "default is info",
			logged:  []string{"info msg", "warn msg", "error msg"},
			dropped: []string{"debug msg"},
		},
		{
			name:     "debug",
			opts:     Options{Debug: true},
			logged:   []string{"debug msg", "info msg", "warn msg", "error msg"},
			debugOut: true,
		},
		{
			name:    "quiet",
			opts:    Options{Quiet: true},
			logged:  []string{"error msg"},
			dropped: []string{"debug msg", "info msg", "warn msg"},
		},
		{
			// Quiet takes precedence over Debug
			name:    "quiet overrides debug",
			opts:    Options{Debug: true, Quiet: true},
			logged:  []string{"error msg"},
			dropped: []string{"debug msg", "info msg", "warn msg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			opts := tt.opts
			opts.Output = buf
			Init(opts)
			defer resetLogger()

			Debug("debug msg")
			Info("info msg")
			Warn("warn msg")
			Error("error msg")

			output := buf.String()
			for _, want := range tt.logged {
				if !strings.Contains(output, want) {
					t.Errorf("expected %q to be logged, got:\n%s", want, output)
				}
			}
			for _, bad := range tt.dropped {
				if strings.Contains(output, bad) {
					t.Errorf("expected %q to be dropped, got:\n%s", bad, output)
				}
			}
			if DebugEnabled() != tt.debugOut {
				t.Errorf("expected DebugEnabled() = %v", tt.debugOut)
			}
		})
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("template processed", "fields", 2)

	output := buf.String()
	if !strings.HasPrefix(output, "{") {
		t.Errorf("expected JSON output, got %s", output)
	}
	for _, want := range []string{`"msg":"template processed"`, `"fields":2`, `"level":"INFO"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got %s", want, output)
		}
	}
}

func TestInit_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("removed node", "rule", "#sidebar")

	output := buf.String()
	if !strings.Contains(output, "level=INFO") {
		t.Errorf("expected text level, got %s", output)
	}
	if !strings.Contains(output, `msg="removed node" rule=#sidebar`) {
		t.Errorf("expected message and attrs, got %s", output)
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Init(Options{Logger: custom, Quiet: true})
	defer resetLogger()

	Debug("custom debug")
	if !strings.Contains(buf.String(), "custom debug") {
		t.Error("expected custom logger to override Quiet")
	}
}

func TestWith(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	With("pass", "structure").Info("done")

	if !strings.Contains(buf.String(), "pass=structure") {
		t.Errorf("expected attributes in output, got %s", buf.String())
	}
}

func TestForTemplate(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	ForTemplate("invoice.html").Warn("template failed")
	ForTemplate("").Warn("stdin failed")

	output := buf.String()
	if !strings.Contains(output, "template=invoice.html") {
		t.Errorf("expected template name, got %s", output)
	}
	if !strings.Contains(output, "template=-") {
		t.Errorf("expected placeholder for unnamed template, got %s", output)
	}
}
