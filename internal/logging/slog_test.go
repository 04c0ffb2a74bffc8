package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_TextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatText, false)

	logger.Debug("hidden")
	logger.Info("shown", Tool("search_places"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug output should be suppressed at info level")
	}
	if !strings.Contains(out, "tool=search_places") {
		t.Errorf("expected tool attribute in output: %s", out)
	}
}

func TestNew_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatText, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug output should be written when debug is enabled")
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "JSON", false).Info("hello", Status("success"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if line[KeyStatus] != "success" {
		t.Errorf("status = %v, want success", line[KeyStatus])
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"", "text", "json", "TEXT"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) returned %v", f, err)
		}
	}
	if err := ValidateFormat("logfmt"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithTransport(WithTool(logger, "create_calendar_event"), "stdio").Info("x")

	out := buf.String()
	if !strings.Contains(out, "tool=create_calendar_event") || !strings.Contains(out, "transport=stdio") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestAttrs(t *testing.T) {
	if a := Operation("calendar.create"); a.Key != KeyOperation || a.Value.String() != "calendar.create" {
		t.Errorf("Operation attr = %v", a)
	}
	if a := Status("error"); a.Key != KeyStatus {
		t.Errorf("Status key = %q", a.Key)
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err attr = %v", attr)
	}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("ok", Err(nil))
	if strings.Contains(buf.String(), "error=") {
		t.Errorf("nil error should be omitted: %s", buf.String())
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "<empty>"},
		{"abc", "[token:3 chars]"},
		{"kakao-access-token-value", "[token:24 chars]"},
	}
	for _, tt := range tests {
		got := SanitizeToken(tt.token)
		if got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
		if tt.token != "" && strings.Contains(got, tt.token) {
			t.Errorf("SanitizeToken leaked the token: %q", got)
		}
	}
}
