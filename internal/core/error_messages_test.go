package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "no fields selected maps correctly",
			err:         ErrNoFieldsSelected,
			wantCode:    "EXP001",
			wantMessage: "No fields were selected for export",
		},
		{
			name:        "wrapped limiter error maps correctly",
			err:         fmt.Errorf("export applicants: %w", ErrTooManyExports),
			wantCode:    "EXP002",
			wantMessage: "System is busy generating other exports",
		},
		{
			name:        "no recipients maps correctly",
			err:         ErrNoRecipients,
			wantCode:    "SEL001",
			wantMessage: "No records are selected for this action",
		},
		{
			name:        "view not found maps correctly",
			err:         fmt.Errorf("view 1234: %w", ErrViewNotFound),
			wantCode:    "GRID001",
			wantMessage: "This view has expired",
		},
		{
			name:        "invalid date range maps correctly",
			err:         ErrInvalidDateRange,
			wantCode:    "VAL002",
			wantMessage: "The start date is after the end date",
		},
		{
			name:        "cancellation is not a database timeout",
			err:         fmt.Errorf("fetch records: %w", context.DeadlineExceeded),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("fetch records: dial tcp: connection refused"),
			wantCode:    "DB001",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "fetch failure maps correctly",
			err:         errors.New("fetch records: relation \"tickets\" does not exist"),
			wantCode:    "DB003",
			wantMessage: "Records could not be loaded",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO RECIPIENTS for email action"),
			wantCode:    "SEL001",
			wantMessage: "No records are selected for this action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoFieldsSelected)

	expected := "No fields were selected for export (Code: EXP001). Select at least one field"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrUnknownGrid,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(fmt.Errorf("export: %w", ErrNoFieldsSelected)) {
		t.Error("IsValidation(wrapped ErrNoFieldsSelected) = false, want true")
	}
	if IsValidation(ErrViewNotFound) {
		t.Error("IsValidation(ErrViewNotFound) = true, want false")
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("bulk email: %w", ErrNoRecipients)
		userErr := NewUserError(techErr)

		if userErr.Error() != "No records are selected for this action" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, ErrNoRecipients) {
			t.Error("Unwrap() should return original error")
		}
	})
}
