package enhance

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCode
	}{
		{408, CodeTimeout},
		{504, CodeTimeout},
		{429, CodeTimeout},
		{413, CodeDraftTooLarge},
		{415, CodeUnsupportedFormat},
		{400, CodeServiceUnavailable},
		{403, CodeServiceUnavailable},
		{500, CodeServiceUnavailable},
		{503, CodeServiceUnavailable},
		{599, CodeServiceUnavailable},
		{200, CodeInternal},
		{302, CodeInternal},
	}
	for _, c := range cases {
		if got := mapStatus(c.status); got != c.want {
			t.Errorf("mapStatus(%d): got %s, want %s", c.status, got, c.want)
		}
	}
}

func TestMapErrorCode(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"unsupported_format", CodeUnsupportedFormat},
		{"draft_too_large", CodeDraftTooLarge},
		{"payload_too_large", CodeDraftTooLarge},
		{"timeout", CodeTimeout},
		{"service_unavailable", CodeServiceUnavailable},
		{"overloaded", CodeServiceUnavailable},
		{"DRAFT_TOO_LARGE", CodeDraftTooLarge}, // case-insensitive
		{"Timeout", CodeTimeout},
		{"", CodeInternal},
		{"something_else", CodeInternal},
	}
	for _, c := range cases {
		if got := mapErrorCode(c.code); got != c.want {
			t.Errorf("mapErrorCode(%q): got %s, want %s", c.code, got, c.want)
		}
	}
}

func TestClassifySuccessBody(t *testing.T) {
	// enhanced_prompt wins, even alongside an error object
	got, err := classify(200, []byte(`{"enhanced_prompt":"better","error":{"code":"timeout"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "better" {
		t.Errorf("got %q, want %q", got, "better")
	}

	// error object without enhanced_prompt
	_, err = classify(200, []byte(`{"error":{"code":"draft_too_large","message":"too big"}}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Code != CodeDraftTooLarge || err.Message != "too big" {
		t.Errorf("got {%s %q}", err.Code, err.Message)
	}

	// error object without message gets the generic fallback
	_, err = classify(200, []byte(`{"error":{"code":"timeout"}}`))
	if err == nil || err.Code != CodeTimeout {
		t.Fatalf("got %v, want timeout", err)
	}
	if !strings.Contains(err.Message, "without message") {
		t.Errorf("missing fallback message, got %q", err.Message)
	}

	// empty object
	_, err = classify(200, []byte(`{}`))
	if err == nil || err.Code != CodeInternal {
		t.Fatalf("got %v, want internal", err)
	}
	if !strings.Contains(err.Message, "empty response") {
		t.Errorf("got %q, want empty-response message", err.Message)
	}

	// unparseable body on 2xx is a hard internal error
	_, err = classify(200, []byte(`not json`))
	if err == nil || err.Code != CodeInternal {
		t.Fatalf("got %v, want internal", err)
	}
	if !strings.Contains(err.Message, "Failed to parse") {
		t.Errorf("got %q", err.Message)
	}
}

func TestClassifyErrorStatus(t *testing.T) {
	// structured error takes precedence over the status mapping
	_, err := classify(400, []byte(`{"error":{"code":"draft_too_large","message":"too big"}}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Code != CodeDraftTooLarge || err.Message != "too big" {
		t.Errorf("got {%s %q}", err.Code, err.Message)
	}

	// absent code falls back to the status mapping
	_, err = classify(504, []byte(`{"error":{"message":"gateway gave up"}}`))
	if err == nil || err.Code != CodeTimeout {
		t.Fatalf("got %v, want timeout", err)
	}
	if err.Message != "gateway gave up" {
		t.Errorf("got %q", err.Message)
	}

	// unparseable body falls back entirely to the status mapping and keeps
	// the raw status and body in the message
	_, err = classify(503, []byte(`<html>bad gateway</html>`))
	if err == nil || err.Code != CodeServiceUnavailable {
		t.Fatalf("got %v, want service_unavailable", err)
	}
	if !strings.Contains(err.Message, "503") || !strings.Contains(err.Message, "<html>bad gateway</html>") {
		t.Errorf("message should embed status and body, got %q", err.Message)
	}

	// empty body on a timeout-mapped status
	_, err = classify(504, nil)
	if err == nil || err.Code != CodeTimeout {
		t.Fatalf("got %v, want timeout", err)
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(cancelledError()) {
		t.Error("cancelledError not detected")
	}
	if IsCancelled(&Error{Code: CodeInternal, Message: "boom"}) {
		t.Error("unrelated internal error detected as cancelled")
	}
	if IsCancelled(&Error{Code: CodeTimeout, Message: cancelledMessage}) {
		t.Error("timeout with cancelled message detected as cancelled")
	}
	if IsCancelled(errors.New("cancelled")) {
		t.Error("plain error detected as cancelled")
	}
	wrapped := fmt.Errorf("enhance: %w", cancelledError())
	if !IsCancelled(wrapped) {
		t.Error("wrapped cancellation not detected")
	}
}
