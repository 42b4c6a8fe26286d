package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UpstreamError is a failed upstream call that did not time out.
// Message is safe to show to the browser; Err keeps the underlying cause for logs.
type UpstreamError struct {
	Target     string
	StatusCode int // 0 when no upstream response was received
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Target, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Target, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Target, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// errorBody covers the error shapes the backend and providers return.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// errorMessage extracts a human-readable message from an upstream error body.
// It returns "" when the body carries nothing usable.
func errorMessage(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if msg := detailMessage(body.Detail); msg != "" {
		return msg
	}
	if body.Message != "" {
		return body.Message
	}
	return nestedMessage(body.Error)
}

// detailMessage handles {"detail": "..."} and validation lists
// {"detail": [{"loc": [...], "msg": "..."}]}.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg == "" {
			continue
		}
		if len(it.Loc) > 0 {
			msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			continue
		}
		msgs = append(msgs, it.Msg)
	}
	return strings.Join(msgs, "; ")
}

// nestedMessage handles {"error": "..."} and {"error": {"message": "..."}}.
func nestedMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}
