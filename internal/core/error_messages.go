package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # Error Codes Reference
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds UPLOAD_MAX_FILE_SIZE
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid CSV: the CSV could not be parsed
//	          Patterns: "invalid csv"
//
//	FILE003 - Unreadable workbook: the XLSX file is corrupt or not a workbook
//	          Patterns: "unreadable workbook"
//
//	FILE004 - No file: no file was attached to the request
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: no header row or no data rows
//	          Patterns: "empty file"
//
// # Cart Errors (CART001-CART099)
//
//	CART001 - Unknown product: the id is not in the current catalog
//	          Patterns: "unknown product"
//
//	CART002 - Invalid quantity: quantity must be a positive whole number
//	          Patterns: "invalid quantity"
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - System busy: too many catalog loads in progress
//	          Patterns: "too many catalog loads"
//
// # Store Errors (STORE001-STORE099)
//
//	STORE001 - Cart storage unavailable
//	           Patterns: "cart store"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled. Patterns: "context canceled"
//	REQ002 - Request timed out. Patterns: "context deadline exceeded", "timeout"
//	REQ003 - Malformed request body. Patterns: "invalid request body"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests. Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Returned when nothing matches. Check the server log for the original error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns go before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused columns or split the spreadsheet",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused columns or split the spreadsheet",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Save the sheet as comma-separated values and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unreadable workbook",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Open it in a spreadsheet program, save as .xlsx or .csv, and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a CSV or XLSX file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no products",
			Action:  "Download the template to see the expected columns",
			Code:    "FILE005",
		},
	},

	// Cart errors
	{
		pattern: "unknown product",
		msg: UserMessage{
			Message: "That product is not in the current catalog",
			Action:  "Refresh the catalog and try again",
			Code:    "CART001",
		},
	},
	{
		pattern: "invalid quantity",
		msg: UserMessage{
			Message: "Quantity must be a positive whole number",
			Action:  "Enter a quantity of 1 or more",
			Code:    "CART002",
		},
	},

	// Load errors
	{
		pattern: "too many catalog loads",
		msg: UserMessage{
			Message: "Another catalog is still loading",
			Action:  "Please wait a moment and try again",
			Code:    "LOAD001",
		},
	},

	// Store errors
	{
		pattern: "cart store",
		msg: UserMessage{
			Message: "Cart storage is unavailable",
			Action:  "Your cart still works but may not survive a restart",
			Code:    "STORE001",
		},
	},

	// Request errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Send a JSON body such as {\"id\": \"1001\", \"qty\": 1}",
			Code:    "REQ003",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
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

// FormatUserError formats an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
