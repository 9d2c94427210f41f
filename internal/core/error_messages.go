package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Users quote the code; support staff look it up here.
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - No fields: No fields were selected for export
//	         Action: Select at least one field
//	         Patterns: "no fields selected"
//
//	EXP002 - System busy: Too many exports in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent exports"
//
//	EXP003 - Export failed: The file could not be generated
//	         Action: Please try again
//	         Patterns: "export failed"
//
// # Selection Errors (SEL001-SEL099)
//
//	SEL001 - No recipients: The action has no selected records
//	         Action: Select at least one row
//	         Patterns: "no recipients"
//
// # Grid Errors (GRID001-GRID099)
//
//	GRID001 - View expired: The view session no longer exists
//	          Action: Reload the page
//	          Patterns: "view not found"
//
//	GRID002 - Unknown grid: The grid is not configured
//	          Patterns: "unknown grid"
//
//	GRID003 - Unknown action: The grid does not offer this action
//	          Patterns: "unknown action"
//
//	GRID004 - Record not found: The record is no longer in this view
//	          Action: Refresh the grid
//	          Patterns: "record not found"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid page size   Patterns: "invalid page size"
//	VAL002 - Invalid date range  Patterns: "invalid date range"
//	VAL003 - Invalid filter      Patterns: "invalid predicate"
//	VAL004 - Invalid sort        Patterns: "invalid sort"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused   Patterns: "connection refused"
//	DB002 - Timeout              Patterns: "timeout"
//	DB003 - Fetch failed         Patterns: "fetch records"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Bad request         Patterns: "invalid request"
//	REQ002 - Cancelled           Patterns: "context canceled", "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited       Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// Validation and lookup errors returned by the engine and service.
var (
	ErrNoFieldsSelected = errors.New("no fields selected for export")
	ErrTooManyExports   = errors.New("too many concurrent exports, please try again later")
	ErrNoRecipients     = errors.New("no recipients selected")
	ErrViewNotFound     = errors.New("view not found")
	ErrUnknownGrid      = errors.New("unknown grid")
	ErrUnknownAction    = errors.New("unknown action")
	ErrRecordNotFound   = errors.New("record not found")
	ErrInvalidPageSize  = errors.New("invalid page size")
	ErrInvalidDateRange = errors.New("invalid date range: start is after end")
	ErrInvalidPredicate = errors.New("invalid predicate")
	ErrInvalidSortMode  = errors.New("invalid sort mode")
)

// IsValidation reports whether err is a user-correctable validation error.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNoFieldsSelected, ErrNoRecipients, ErrInvalidPageSize,
		ErrInvalidDateRange, ErrInvalidPredicate, ErrInvalidSortMode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Export Errors (EXP001-EXP003)
	// =========================================================================
	{
		pattern: "no fields selected",
		msg: UserMessage{
			Message: "No fields were selected for export",
			Action:  "Select at least one field",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "System is busy generating other exports",
			Action:  "Please wait a moment and try again",
			Code:    "EXP002",
		},
	},
	{
		pattern: "export failed",
		msg: UserMessage{
			Message: "The export file could not be generated",
			Action:  "Please try again",
			Code:    "EXP003",
		},
	},

	// =========================================================================
	// Selection Errors (SEL001)
	// =========================================================================
	{
		pattern: "no recipients",
		msg: UserMessage{
			Message: "No records are selected for this action",
			Action:  "Select at least one row",
			Code:    "SEL001",
		},
	},

	// =========================================================================
	// Grid Errors (GRID001-GRID004)
	// =========================================================================
	{
		pattern: "view not found",
		msg: UserMessage{
			Message: "This view has expired",
			Action:  "Reload the page to open a new view",
			Code:    "GRID001",
		},
	},
	{
		pattern: "unknown grid",
		msg: UserMessage{
			Message: "Unknown grid",
			Action:  "This grid is not configured",
			Code:    "GRID002",
		},
	},
	{
		pattern: "unknown action",
		msg: UserMessage{
			Message: "Unknown action",
			Action:  "This grid does not offer that action",
			Code:    "GRID003",
		},
	},
	{
		pattern: "record not found",
		msg: UserMessage{
			Message: "The record is no longer available",
			Action:  "Refresh the grid and try again",
			Code:    "GRID004",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL004)
	// =========================================================================
	{
		pattern: "invalid page size",
		msg: UserMessage{
			Message: "Invalid page size",
			Action:  "Choose a positive page size or show all rows",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid date range",
		msg: UserMessage{
			Message: "The start date is after the end date",
			Action:  "Pick a start date on or before the end date",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid predicate",
		msg: UserMessage{
			Message: "The filter expression is not valid",
			Action:  "Check the filter syntax",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid sort",
		msg: UserMessage{
			Message: "Unknown sort option",
			Action:  "Choose one of the listed sort options",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// Context errors come before "timeout" so cancellations are not reported
	// as database problems.
	// =========================================================================
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Reload the page and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB003)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB002",
		},
	},
	{
		pattern: "fetch records",
		msg: UserMessage{
			Message: "Records could not be loaded",
			Action:  "Refresh to try again; the grid keeps its current data",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
//
// Example:
//
//	msg := MapError(ErrNoFieldsSelected)
//	// msg.Code == "EXP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern (not ERR000).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error. Returns nil
// if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
