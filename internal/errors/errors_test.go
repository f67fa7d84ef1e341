package errors

import (
	"fmt"
	"testing"
)

func TestSandboxError_Error(t *testing.T) {
	err := &SandboxError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "session not found: abc",
	}

	expected := "NOT_FOUND: session not found: abc"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("session_id is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "session_id is required" {
		t.Errorf("Message = %q, want %q", err.Message, "session_id is required")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	err := NewInvalidConfig("content_rating", "maxRating", "unknown rating \"XX\"")

	if err.Code != ErrInvalidConfig {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidConfig)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Details["category"] != "content_rating" {
		t.Errorf("Details[category] = %v, want content_rating", err.Details["category"])
	}
	if err.Details["key"] != "maxRating" {
		t.Errorf("Details[key] = %v, want maxRating", err.Details["key"])
	}
}

func TestNewUnknownCategory(t *testing.T) {
	err := NewUnknownCategory("bogus")

	if err.Code != ErrUnknownCategory {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnknownCategory)
	}
	if err.Details["category"] != "bogus" {
		t.Errorf("Details[category] = %v, want bogus", err.Details["category"])
	}
}

func TestNewUnknownProvider(t *testing.T) {
	err := NewUnknownProvider("hulu")

	if err.Code != ErrUnknownProvider {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnknownProvider)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("snapshot", "01ABC")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "snapshot not found: 01ABC" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["identifier"] != "01ABC" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01ABC")
	}
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition("COMMIT", "idle")

	if err.Code != ErrInvalidTransition {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidTransition)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Message != "COMMIT is not valid while idle" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewPathNotAllowed(t *testing.T) {
	err := NewPathNotAllowed("/etc/passwd", "outside allowed directories")

	if err.Code != ErrPathNotAllowed {
		t.Errorf("Code = %q, want %q", err.Code, ErrPathNotAllowed)
	}
	if err.Status != 403 {
		t.Errorf("Status = %d, want 403", err.Status)
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("disk full"))
		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Message != "disk full" {
			t.Errorf("Message = %q, want %q", err.Message, "disk full")
		}
	})

	t.Run("nil error", func(t *testing.T) {
		err := NewInternal(nil)
		if err.Message != "internal error" {
			t.Errorf("Message = %q, want %q", err.Message, "internal error")
		}
	})
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewInvalidTransition("COMMIT", "idle"), ErrInvalidTransition, true},
		{"different code", NewInvalidTransition("COMMIT", "idle"), ErrNotFound, false},
		{"wrapped", fmt.Errorf("commit: %w", NewNotFound("session", "x")), ErrNotFound, true},
		{"plain error", fmt.Errorf("boom"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewUnknownCategory("x"))
	sErr, ok := As(wrapped)
	if !ok {
		t.Fatal("As() returned false for wrapped SandboxError")
	}
	if sErr.Code != ErrUnknownCategory {
		t.Errorf("Code = %q, want %q", sErr.Code, ErrUnknownCategory)
	}

	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Error("As() returned true for plain error")
	}
}
