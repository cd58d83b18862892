package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", Validation("bad answer"), CodeValidation},
		{"not found", NotFound("problem", "p-9"), CodeNotFound},
		{"conflict", Conflict("duplicate key %q", "k1"), CodeConflict},
		{"persistence", Persistence(errors.New("disk full")), CodePersistence},
		{"plain error", errors.New("boom"), CodeInternal},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("student", "s-1")), CodeNotFound},
	}
	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Errorf("%s: CodeOf = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("submit: %w", Conflict("duplicate"))
	if !Is(err, CodeConflict) {
		t.Error("Is(CodeConflict) = false for wrapped conflict")
	}
	if Is(err, CodeNotFound) {
		t.Error("Is(CodeNotFound) = true for conflict error")
	}
}

func TestStatusMapping(t *testing.T) {
	if got := Validation("x").Status; got != http.StatusBadRequest {
		t.Errorf("validation status = %d, want 400", got)
	}
	if got := Persistence(errors.New("x")).Status; got != http.StatusServiceUnavailable {
		t.Errorf("persistence status = %d, want 503", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("locked")
	err := Persistence(cause)
	if !errors.Is(err, cause) {
		t.Error("Persistence does not unwrap to its cause")
	}
}
