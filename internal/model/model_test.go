package model

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestEnvelope_SuccessAlwaysHasData(t *testing.T) {
	for _, data := range []any{nil, json.RawMessage(`[]`), map[string]int{"n": 1}, 0, ""} {
		out, err := json.Marshal(OK(data))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(out, &raw); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if string(raw["success"]) != "true" {
			t.Errorf("OK(%v): success = %s", data, raw["success"])
		}
		if _, ok := raw["data"]; !ok && data == nil {
			t.Errorf("OK(nil): data missing in %s", out)
		}
		if _, ok := raw["error"]; ok {
			t.Errorf("OK(%v): unexpected error member in %s", data, out)
		}
	}
}

func TestEnvelope_FailureAlwaysHasMessage(t *testing.T) {
	tests := []struct {
		in   ErrorBody
		want string
	}{
		{ErrorBody{}, "request failed"},
		{ErrorBody{Message: "boom", StatusCode: 502}, "boom"},
	}
	for _, tt := range tests {
		env := Fail(tt.in)
		if env.Success {
			t.Errorf("Fail(%+v).Success = true", tt.in)
		}
		if env.Error == nil || env.Error.Message != tt.want {
			t.Errorf("Fail(%+v).Error = %+v, want message %q", tt.in, env.Error, tt.want)
		}
		out, _ := json.Marshal(env)
		var raw map[string]json.RawMessage
		_ = json.Unmarshal(out, &raw)
		if _, ok := raw["data"]; ok {
			t.Errorf("Fail: unexpected data member in %s", out)
		}
	}
}

func TestRedactSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "[REDACTED]"},
		{"12345678", "[REDACTED]"},
		{"sk-live-abcdef123456", "sk-l…[REDACTED]"},
	}
	for _, tt := range tests {
		if got := RedactSecret(tt.in); got != tt.want {
			t.Errorf("RedactSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCredential_FormattingIsRedacted(t *testing.T) {
	c := Credential("eyJhbGciOiJIUzI1NiJ9.secret")
	for _, got := range []string{fmt.Sprint(c), fmt.Sprintf("%v", c), c.LogValue().String()} {
		if got != "eyJh…[REDACTED]" {
			t.Errorf("formatted credential = %q", got)
		}
	}
	if c.Reveal() != "eyJhbGciOiJIUzI1NiJ9.secret" {
		t.Errorf("Reveal() = %q", c.Reveal())
	}
}
