package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// MutationError is implemented by every typed error the engine returns
type MutationError interface {
	error
	Code() string
}

// ErrorKind names a validation failure category
type ErrorKind string

const (
	ErrInvalid    ErrorKind = "invalid"
	ErrMissing    ErrorKind = "missing"
	ErrRequired   ErrorKind = "required"
	ErrForeignKey ErrorKind = "foreign_key"
	ErrInteger    ErrorKind = "integer"
	ErrLength     ErrorKind = "length"
)

// Messages maps error kinds to templates. Templates may use {field},
// {table} and {extra}.
type Messages map[ErrorKind]string

// DefaultMessages returns the built-in templates
func DefaultMessages() Messages {
	return Messages{
		ErrInvalid:    "{field} is not a column of {table}",
		ErrMissing:    "no {table} record matches {field}",
		ErrRequired:   "{field} is required",
		ErrForeignKey: "{field} must reference an existing {extra} record",
		ErrInteger:    "{field} must be an integer",
		ErrLength:     "{field} must be at most {extra} characters",
	}
}

// Format renders the template for kind, falling back to the default
// template when the kind is not overridden.
func (m Messages) Format(kind ErrorKind, field, table, extra string) string {
	tmpl, ok := m[kind]
	if !ok || tmpl == "" {
		tmpl = DefaultMessages()[kind]
	}
	return strings.NewReplacer(
		"{field}", field,
		"{table}", table,
		"{extra}", extra,
	).Replace(tmpl)
}

// ValidationErrors maps field names to messages. Empty means valid.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation passed"
	}
	fields := v.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Code() string {
	return "VALIDATION_ERROR"
}

// Valid reports whether there are no errors
func (v ValidationErrors) Valid() bool {
	return len(v) == 0
}

// Fields returns the failing field names sorted
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// UnknownTableError is returned when a table is not in the catalog
type UnknownTableError struct {
	Table     string
	Available []string
}

func (e *UnknownTableError) Error() string {
	msg := fmt.Sprintf("unknown table '%s'", e.Table)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", "))
	}
	return msg
}

func (e *UnknownTableError) Code() string {
	return "UNKNOWN_TABLE"
}

// ErrNoRowsUpdated is wrapped by WriteError when an update matched nothing
var ErrNoRowsUpdated = errors.New("no rows updated")

// WriteError wraps a failed insert or update
type WriteError struct {
	Table     string
	Operation string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Operation, e.Table, e.Err)
}

func (e *WriteError) Code() string {
	return "WRITE_FAILED"
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ConstraintError is a database constraint violation reported by a driver
type ConstraintError struct {
	Type       string // unique, foreign_key, not_null, check
	Table      string
	Field      string
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	msg := fmt.Sprintf("%s constraint violated on %s", e.Type, e.Table)
	if e.Field != "" {
		msg += fmt.Sprintf(".%s", e.Field)
	}
	if e.Constraint != "" {
		msg += fmt.Sprintf(" (%s)", e.Constraint)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstraintError) Code() string {
	return "CONSTRAINT_VIOLATION"
}

// ErrorCode returns the Code of the first MutationError in err's chain
func ErrorCode(err error) string {
	var me MutationError
	if errors.As(err, &me) {
		return me.Code()
	}
	return ""
}

// FormatValidationErrors renders errors for a terminal
func FormatValidationErrors(table string, errs ValidationErrors) string {
	var b strings.Builder

	if errs.Valid() {
		color.New(color.FgGreen, color.Bold).Fprintf(&b, "OK ")
		fmt.Fprintf(&b, "%s record is valid\n", table)
		return b.String()
	}

	color.New(color.FgRed, color.Bold).Fprintf(&b, "Error: ")
	fmt.Fprintf(&b, "%s record has %d invalid field(s)\n\n", table, len(errs))

	fieldColor := color.New(color.FgCyan)
	for _, field := range errs.Fields() {
		fieldColor.Fprintf(&b, "  --> %s", field)
		fmt.Fprintf(&b, ": %s\n", errs[field])
	}

	return b.String()
}
