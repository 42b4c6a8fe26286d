package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("page must be >= %d", 1), KindValidation},
		{"auth sentinel", ErrAuthenticationRequired, KindAuthentication},
		{"wrapped timeout", fmt.Errorf("search: %w", Timeout("social_search", context.DeadlineExceeded)), KindTimeout},
		{"not configured", NotConfigured("llm"), KindNotConfigured},
		{"plain", errors.New("x"), KindUpstream},
		{"nil", nil, KindUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	err := Timeout("video", context.DeadlineExceeded)
	if err.Message != "video request timed out" {
		t.Errorf("Message = %q", err.Message)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Timeout should unwrap to its cause")
	}
	if got := NotConfigured("analytics").Error(); got != "analytics not configured" {
		t.Errorf("Error() = %q", got)
	}
	if got := Validation("name is required").Error(); got != "name is required" {
		t.Errorf("Error() = %q", got)
	}
}
