package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := NewParse(12, ")", "unexpected token")
	if got := err.Error(); got != `PARSE_ERROR: unexpected token at position 12 near ")"` {
		t.Errorf("Error() = %q", got)
	}
	if err.Details["position"] != 12 {
		t.Errorf("position detail = %v, want 12", err.Details["position"])
	}
}

func TestLimitExceededMessage(t *testing.T) {
	err := NewLimitExceeded("nesting depth", 6, 7)
	if err.Message != "filter nesting depth 7 exceeds limit 6" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Status != 413 {
		t.Errorf("Status = %d, want 413", err.Status)
	}
}

func TestIs(t *testing.T) {
	if !Is(NewNotFound("x"), ErrNotFound) {
		t.Error("Is should match the error's own code")
	}
	if Is(NewNotFound("x"), ErrRemote) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrInternal) {
		t.Error("Is should not match plain errors")
	}
	if Is(nil, ErrInternal) {
		t.Error("Is should not match nil")
	}
}

func TestRemoteKind(t *testing.T) {
	if got := RemoteKind(NewRemote(RemoteKindTimeout, "slow")); got != RemoteKindTimeout {
		t.Errorf("RemoteKind = %q, want timeout", got)
	}
	if got := RemoteKind(NewInternal(nil)); got != "" {
		t.Errorf("RemoteKind of non-remote = %q, want empty", got)
	}
}

func TestRemoteErrorNeverEchoesCredentials(t *testing.T) {
	// Constructors take a message the call sites build without the token;
	// the auth error in particular names only the status.
	err := NewRemote(RemoteKindAuth, "remote API rejected credentials (status 401)")
	if strings.Contains(err.Error(), "Bearer") {
		t.Error("remote error must not carry authorization material")
	}
	if err.Details["kind"] != RemoteKindAuth {
		t.Errorf("kind detail = %v, want auth", err.Details["kind"])
	}
}
