package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormatterFieldsSortedAndLeveled(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(DebugLevel),
		WithFormatter(&TextFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Info("line created", Str("line", "orders"), Int("delay_ms", 500))

	out := buf.String()
	if !strings.Contains(out, "INFO line created") {
		t.Fatalf("output: %q", out)
	}
	if strings.Index(out, "delay_ms=500") > strings.Index(out, "line=orders") {
		t.Fatalf("fields not sorted: %q", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(InfoLevel),
		WithFormatter(&JSONFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Warn("slow drain", Int64("pending", 42))

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if obj["level"] != "WARN" || obj["msg"] != "slow drain" {
		t.Fatalf("object: %v", obj)
	}
	if obj["pending"].(float64) != 42 {
		t.Fatalf("pending field: %v", obj["pending"])
	}
}

func TestLevelGate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(ErrorLevel), WithOutput(NewWriterOutput(&buf)))
	l.Info("invisible")
	if buf.Len() != 0 {
		t.Fatalf("info logged below gate: %q", buf.String())
	}
	l.Error("visible")
	if buf.Len() == 0 {
		t.Fatalf("error entry dropped")
	}
}

func TestWithBindsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(InfoLevel), WithOutput(NewWriterOutput(&buf)))
	child := l.WithComponent("lines")
	child.Info("hello")
	if !strings.Contains(buf.String(), "component=lines") {
		t.Fatalf("bound field missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("warn"); err != nil || lvl != WarnLevel {
		t.Fatalf("warn: %v %v", lvl, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestApplyConfig(t *testing.T) {
	l, err := ApplyConfig(&Config{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if l.GetLevel() != DebugLevel {
		t.Fatalf("level: %v", l.GetLevel())
	}
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
