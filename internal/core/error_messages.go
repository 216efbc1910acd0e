package core

import (
	"errors"
	"strings"

	"crmcore/internal/domain"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// kindMessage carries the action and code for one validation kind. The
// message itself always comes from the error, which names the field.
type kindMessage struct {
	Action string
	Code   string
}

// kindMessages maps validation kinds to stable codes:
//
//	VAL001 - Missing field: a required field was empty
//	VAL002 - Format: a field value did not match the expected shape
//	VAL003 - Range: a numeric value was outside the allowed range
//	VAL004 - Empty input: a collection that needs entries had none
//	DUP001 - Conflict: a unique value already exists
//	REF001 - Not found: a referenced record does not exist
var kindMessages = map[domain.Kind]kindMessage{
	domain.KindMissingField: {
		Action: "Fill in the missing field and resubmit",
		Code:   "VAL001",
	},
	domain.KindFormat: {
		Action: "Correct the field format and resubmit",
		Code:   "VAL002",
	},
	domain.KindRange: {
		Action: "Adjust the value to the allowed range and resubmit",
		Code:   "VAL003",
	},
	domain.KindEmptyInput: {
		Action: "Add at least one entry and resubmit",
		Code:   "VAL004",
	},
	domain.KindConflict: {
		Action: "Use a different value or look up the existing record",
		Code:   "DUP001",
	},
	domain.KindNotFound: {
		Action: "Check the identifier and try again",
		Code:   "REF001",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Patterns are matched using strings.Contains and the first match
// wins, so more specific patterns come before general ones.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Import Errors (IMP001, FILE001-FILE005)
	// These errors occur when processing uploaded CSV files.
	// =========================================================================
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "The system is processing too many imports right now",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with data rows",
			Code:    "FILE001",
		},
	},
	{
		pattern: "header row not found",
		msg: UserMessage{
			Message: "The file is missing the expected header row",
			Action:  "Add a header row with name, email and phone columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The uploaded file exceeds the size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Ensure the file is comma-separated and re-export it",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no data rows after header",
		msg: UserMessage{
			Message: "The file has a header but no data rows",
			Action:  "Add at least one data row below the header",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB001-DB004)
	// These errors occur when database connectivity is disrupted.
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
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// These errors occur when a request is cut short.
	// "context deadline exceeded" must sit above the general "timeout".
	// =========================================================================
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try again with a smaller request",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again with a smaller request",
			Code:    "DB004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000). Support staff
// should check application logs for the original technical error when users
// report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message. Validation errors
// keep their own message and take the action and code of their kind; any
// other error is searched against known technical patterns so internal
// detail never reaches a client. If nothing matches, the generic ERR000
// fallback is returned.
//
// Example:
//
//	err := domain.ConflictError("email", "Email already exists.")
//	msg := MapError(err)
//	// msg.Code == "DUP001"
//	// msg.Message == "Email already exists."
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var domErr *domain.Error
	if errors.As(err, &domErr) {
		km, ok := kindMessages[domErr.Kind]
		if !ok {
			km = kindMessage{Action: defaultMessage.Action, Code: defaultMessage.Code}
		}
		return UserMessage{
			Message: domErr.Message,
			Action:  km.Action,
			Code:    km.Code,
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
