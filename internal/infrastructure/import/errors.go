package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes, reported next to the line number
const (
	CodeMalformedRow  = "ERR_IMPORT_MALFORMED_ROW"
	CodeRequired      = "ERR_IMPORT_REQUIRED_FIELD"
	CodeInvalidFormat = "ERR_IMPORT_INVALID_FORMAT"
	CodeInvalidRange  = "ERR_IMPORT_INVALID_RANGE"
	CodeInvalidLength = "ERR_IMPORT_INVALID_LENGTH"
	CodeNetMismatch   = "ERR_IMPORT_NET_MISMATCH"
	CodeValidation    = "ERR_IMPORT_VALIDATION"
)

// DefaultMaxErrors bounds how many row errors are kept for reporting
const DefaultMaxErrors = 100

// File level failures; no row of such a file is imported.
var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("invalid file encoding, expected UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrNoDataRows      = errors.New("CSV file contains no data rows")
)

// MissingColumnsError names the required header columns the file lacks
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "CSV file is missing columns: " + strings.Join(e.Columns, ", ")
}

// RowError is one rejected cell or line. Row is the 1-based file line.
type RowError struct {
	Row     int    `json:"row" yaml:"row"`
	Column  string `json:"column,omitempty" yaml:"column,omitempty"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
}

// RowErrors is the error report of one import. Every error is counted and
// marks its line as failed, but only the first limit are kept for display.
type RowErrors struct {
	kept   []RowError
	limit  int
	byCode map[string]int
	failed map[int]struct{}
}

// NewRowErrors keeps up to limit errors; limit <= 0 means DefaultMaxErrors.
func NewRowErrors(limit int) *RowErrors {
	if limit <= 0 {
		limit = DefaultMaxErrors
	}
	return &RowErrors{
		limit:  limit,
		byCode: make(map[string]int),
		failed: make(map[int]struct{}),
	}
}

func (r *RowErrors) Add(e RowError) {
	r.byCode[e.Code]++
	r.failed[e.Row] = struct{}{}
	if len(r.kept) < r.limit {
		r.kept = append(r.kept, e)
	}
}

// Required records an empty mandatory cell
func (r *RowErrors) Required(row int, column string) {
	r.Add(RowError{Row: row, Column: column, Code: CodeRequired,
		Message: fmt.Sprintf("field '%s' is required", column)})
}

// BadFormat records a cell that does not parse as expected
func (r *RowErrors) BadFormat(row int, column, expected, value string) {
	r.Add(RowError{Row: row, Column: column, Code: CodeInvalidFormat,
		Message: "invalid format, expected " + expected, Value: value})
}

// List returns the kept errors in the order they were added
func (r *RowErrors) List() []RowError {
	return r.kept
}

// Total counts every error, kept or not
func (r *RowErrors) Total() int {
	n := 0
	for _, c := range r.byCode {
		n += c
	}
	return n
}

func (r *RowErrors) Empty() bool {
	return len(r.failed) == 0
}

// Failed reports whether line row has at least one error
func (r *RowErrors) Failed(row int) bool {
	_, ok := r.failed[row]
	return ok
}

// Truncated reports whether errors were dropped from List
func (r *RowErrors) Truncated() bool {
	return r.Total() > len(r.kept)
}

// CountByCode counts every error per code, including dropped ones.
func (r *RowErrors) CountByCode() map[string]int {
	out := make(map[string]int, len(r.byCode))
	for code, n := range r.byCode {
		out[code] = n
	}
	return out
}

func (r *RowErrors) String() string {
	if r.Empty() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", r.Total())
	if r.Truncated() {
		fmt.Fprintf(&sb, " (showing first %d)", len(r.kept))
	}
	sb.WriteString(":\n")
	for _, e := range r.kept {
		sb.WriteString("  - " + e.Error() + "\n")
	}
	return sb.String()
}
