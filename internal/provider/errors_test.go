package provider

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	rejected := fmt.Errorf("wrapped: %w", &APIError{Op: "do_click", Code: 1001, Message: "too fast"})
	transport := fmt.Errorf("wrapped: %w", &TransportError{Op: "do_click", Status: 502, Err: errors.New("bad gateway")})

	if !IsRejected(rejected) || IsTransport(rejected) {
		t.Errorf("rejection misclassified: %v", rejected)
	}
	if RejectCode(rejected) != 1001 {
		t.Errorf("unexpected code %d", RejectCode(rejected))
	}
	if !IsTransport(transport) || IsRejected(transport) {
		t.Errorf("transport misclassified: %v", transport)
	}
	if RejectCode(transport) != 0 {
		t.Errorf("transport should have no code")
	}
	if !errors.Is(transport, ErrTransport) {
		t.Error("errors.Is should match ErrTransport")
	}
}
