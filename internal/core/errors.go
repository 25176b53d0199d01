package core

import "errors"

// Sentinel errors. Their messages contain the patterns MapError looks for,
// so wrapped errors still map to the right user message.
var (
	ErrEmptyFile          = errors.New("empty file: no header or data rows")
	ErrInvalidCSV         = errors.New("invalid csv")
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
	ErrNoFile             = errors.New("no file provided")
	ErrUnknownProduct     = errors.New("unknown product")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrTooManyLoads       = errors.New("too many catalog loads in progress")
)
