package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"DEBUG", log.DebugLevel},
		{" Error ", log.ErrorLevel},
		{"invalid", log.InfoLevel},
		{"", log.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.level); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.expected)
		}
	}
}

func TestNewTextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "debug", Writer: &buf})

	logger.Debug("converted", FieldFile, "Foo.java", FieldMethods, 2)

	out := buf.String()
	if !strings.Contains(out, "converted") || !strings.Contains(out, "file=Foo.java") {
		t.Errorf("unexpected text output %q", out)
	}
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Format: FormatJSON, Writer: &buf})

	logger.Debug("hidden")
	logger.Warn("skipped", FieldStage, "pair")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "skipped" || entry["stage"] != "pair" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"", "text", "json", "JSON"} {
		if !ValidFormat(f) {
			t.Errorf("expected %q to be valid", f)
		}
	}
	if ValidFormat("xml") {
		t.Error("xml should not be a valid format")
	}
}

func TestDefaultAndSetLevel(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	SetDefault(New(Options{Level: "info"}))
	SetLevel("debug")
	if Default().GetLevel() != log.DebugLevel {
		t.Error("SetLevel to debug failed")
	}
	SetLevel("error")
	if Default().GetLevel() != log.ErrorLevel {
		t.Error("SetLevel to error failed")
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("empty context should yield the default logger")
	}

	custom := New(Options{Level: "warn"})
	ctx := WithLogger(context.Background(), custom)
	if FromContext(ctx) != custom {
		t.Error("FromContext did not return the attached logger")
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTo(&buf, 3, "converting", true)

	var wg sync.WaitGroup
	for _, name := range []string{"A.java", "B.java", "C.java"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			p.Increment(name)
		}(name)
	}
	wg.Wait()
	p.Finish()

	if p.Done() != 3 {
		t.Errorf("expected 3 done, got %d", p.Done())
	}
	if !strings.Contains(buf.String(), "[3/3] converting") {
		t.Errorf("missing final count in %q", buf.String())
	}
}

func TestProgressSilentWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 2, "converting")
	p.Increment("A.java")
	p.Finish()

	if buf.Len() != 0 {
		t.Errorf("expected no output for a non-terminal writer, got %q", buf.String())
	}
	if IsTerminal(&buf) {
		t.Error("a buffer is not a terminal")
	}
}
