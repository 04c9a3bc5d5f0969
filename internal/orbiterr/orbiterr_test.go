package orbiterr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindFatalMatchesTable(t *testing.T) {
	cases := []struct {
		kind  Kind
		fatal bool
	}{
		{Validation, true},
		{Authentication, true},
		{Integrity, true},
		{Capacity, true},
		{Internal, true},
		{Cancelled, true},
		{Network, false},
		{Permission, false},
	}
	for _, c := range cases {
		err := New(c.kind, "x", nil)
		if got := err.Fatal(); got != c.fatal {
			t.Errorf("Kind(%s).Fatal() = %v, want %v", c.kind, got, c.fatal)
		}
	}
}

func TestNetworkIsAlwaysTransient(t *testing.T) {
	err := New(Network, "dial failed", nil)
	if !err.Transient() {
		t.Fatal("Network errors must always be transient")
	}
}

func TestPermissionIsNeitherFatalNorTransient(t *testing.T) {
	err := New(Permission, "denied", nil)
	if err.Fatal() {
		t.Fatal("Permission must not be Fatal")
	}
	if err.Transient() {
		t.Fatal("Permission must not be Transient")
	}
}

func TestNewIOClassifiesTimeoutAsTransient(t *testing.T) {
	err := NewIO("read failed", timeoutErr{})
	if !err.Transient() {
		t.Fatal("timeout IO error should be transient")
	}
}

func TestNewIOClassifiesConnectionResetAsTransient(t *testing.T) {
	err := NewIO("write failed", errors.New("write: connection reset by peer"))
	if !err.Transient() {
		t.Fatal("connection reset IO error should be transient")
	}
}

func TestNewIOClassifiesGenericErrorAsPermanent(t *testing.T) {
	err := NewIO("open failed", errors.New("no such file or directory"))
	if err.Transient() {
		t.Fatal("generic IO error should not be transient")
	}
}

func TestUnrecognizedErrorIsTreatedAsFatal(t *testing.T) {
	plain := errors.New("boom")
	if !Fatal(plain) {
		t.Fatal("an unrecognized error must be treated as fatal")
	}
	if Transient(plain) {
		t.Fatal("an unrecognized error must not be treated as transient")
	}
}

func TestAsUnwrapsWrappedError(t *testing.T) {
	base := New(Integrity, "hash mismatch", nil)
	wrapped := fmt.Errorf("copy failed: %w", base)

	got, ok := As(wrapped)
	if !ok {
		t.Fatal("expected wrapped *Error to be found")
	}
	if got.Kind != Integrity {
		t.Fatalf("Kind = %v, want Integrity", got.Kind)
	}
	if !Fatal(wrapped) {
		t.Fatal("Fatal(wrapped) should report true for an Integrity error")
	}
}

func TestErrorStringIncludesWrappedCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(Capacity, "write failed", cause)
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty error string")
	}
	if !strings.Contains(msg, "disk full") {
		t.Fatalf("error string %q does not include the wrapped cause", msg)
	}
}

func TestCancelledIsFatal(t *testing.T) {
	err := New(Cancelled, "context done", context.Canceled)
	if !err.Fatal() {
		t.Fatal("Cancelled must be Fatal")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }
