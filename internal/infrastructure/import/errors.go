package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	CodeMalformedRow  = "MALFORMED_ROW"
	CodeRequired      = "REQUIRED"
	CodeInvalidNumber = "INVALID_NUMBER"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeTooLong       = "TOO_LONG"
	CodeDuplicate     = "DUPLICATE_IN_FILE"
	CodeRejected      = "REJECTED"
)

// File level errors
var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not UTF-8 encoded")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrNoDataRows      = errors.New("CSV file contains no data rows")
	ErrTooManyRows     = errors.New("CSV file has too many rows")
)

// RowError describes why one line could not be imported
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// NewRowError creates a RowError
func NewRowError(row int, column, code, message string) *RowError {
	return &RowError{Row: row, Column: column, Code: code, Message: message}
}

// Error implements the error interface
func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps the first max row errors and counts the rest
type ErrorCollection struct {
	errors []RowError
	max    int
	total  int
}

// NewErrorCollection creates a collection holding at most max errors
func NewErrorCollection(max int) *ErrorCollection {
	if max <= 0 {
		max = 100
	}
	return &ErrorCollection{max: max}
}

// Add records errs
func (c *ErrorCollection) Add(errs ...RowError) {
	for _, e := range errs {
		c.total++
		if len(c.errors) < c.max {
			c.errors = append(c.errors, e)
		}
	}
}

// Errors returns the retained errors
func (c *ErrorCollection) Errors() []RowError {
	return c.errors
}

// Total counts every added error, retained or not
func (c *ErrorCollection) Total() int {
	return c.total
}

// Truncated reports whether errors were dropped
func (c *ErrorCollection) Truncated() bool {
	return c.total > len(c.errors)
}
