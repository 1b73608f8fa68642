package service

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "field and message",
			err: &ValidationError{
				Field:   "content",
				Message: "must be at least 20 characters",
			},
			want: "validation error on field content: must be at least 20 characters",
		},
		{
			name: "empty field",
			err: &ValidationError{
				Field:   "",
				Message: "invalid",
			},
			want: "validation error on field : invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		msg     string
		wantNil bool
		wantMsg string
	}{
		{
			name:    "nil error",
			err:     nil,
			msg:     "context",
			wantNil: true,
		},
		{
			name:    "wrapped error",
			err:     errors.New("original error"),
			msg:     "context",
			wantNil: false,
			wantMsg: "context: original error",
		},
		{
			name:    "empty message",
			err:     errors.New("original error"),
			msg:     "",
			wantNil: false,
			wantMsg: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, tt.msg)
			if tt.wantNil {
				if got != nil {
					t.Errorf("WrapError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Errorf("WrapError() = nil, want error")
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("WrapError() = %v, want %v", got.Error(), tt.wantMsg)
			}
			// Verify error wrapping
			if !errors.Is(got, tt.err) {
				t.Errorf("WrapError() should wrap original error")
			}
		})
	}
}

func TestErrorConstants(t *testing.T) {
	if ErrInvalidInput == nil {
		t.Error("ErrInvalidInput should not be nil")
	}
	if ErrNotFound == nil {
		t.Error("ErrNotFound should not be nil")
	}
	if ErrExternalService == nil {
		t.Error("ErrExternalService should not be nil")
	}

	// Test error matching
	if !errors.Is(ErrInvalidInput, ErrInvalidInput) {
		t.Error("ErrInvalidInput should match itself")
	}
	if !errors.Is(ErrNotFound, ErrNotFound) {
		t.Error("ErrNotFound should match itself")
	}
	if !errors.Is(ErrExternalService, ErrExternalService) {
		t.Error("ErrExternalService should match itself")
	}
	if errors.Is(ErrNotConfigured, ErrNotFound) || errors.Is(ErrConflict, ErrInvalidInput) {
		t.Error("sentinel errors should be distinct")
	}
}


func TestValidationError_MatchesInvalidInput(t *testing.T) {
	var err error = WrapError(&ValidationError{Field: "content", Message: "cannot be empty"}, "create entry")
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("validation errors should match ErrInvalidInput")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "content" {
		t.Errorf("errors.As() should find the ValidationError, got %v", err)
	}
}

func TestWrapKind(t *testing.T) {
	if wrapKind(ErrConflict, nil, "update") != nil {
		t.Error("wrapKind() with nil error should return nil")
	}

	cause := errors.New("revision 3 != 4")
	err := wrapKind(ErrConflict, cause, "update entry")
	if !errors.Is(err, ErrConflict) || !errors.Is(err, cause) {
		t.Errorf("wrapKind() should match both the kind and the cause, got %v", err)
	}
	if err.Error() != "update entry: conflict: revision 3 != 4" {
		t.Errorf("wrapKind() = %q", err.Error())
	}
}
