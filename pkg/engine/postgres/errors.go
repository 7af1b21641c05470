package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapDatabaseError converts PostgreSQL errors to engine error types.
// Anything that is not a recognised constraint error is wrapped as-is.
func mapDatabaseError(err error, table string, operation string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s failed: %w", operation, err)
	}

	// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
	switch pgErr.Code {
	case "23505": // unique_violation
		return constraintError("unique", table, pgErr, extractFieldFromDetail(pgErr.Detail))

	case "23503": // foreign_key_violation
		return constraintError("foreign_key", table, pgErr, extractFieldFromDetail(pgErr.Detail))

	case "23502": // not_null_violation
		field := pgErr.ColumnName
		if field == "" {
			field = extractFieldFromMessage(pgErr.Message)
		}
		return constraintError("not_null", table, pgErr, field)

	case "23514": // check_violation
		return constraintError("check", table, pgErr, pgErr.ColumnName)

	case "42P01": // undefined_table
		return &engine.UnknownTableError{Table: table}

	default:
		return fmt.Errorf("%s failed: %s (code: %s): %w", operation, pgErr.Message, pgErr.Code, err)
	}
}

func constraintError(kind, table string, pgErr *pgconn.PgError, field string) *engine.ConstraintError {
	detail := pgErr.Detail
	if detail == "" {
		detail = pgErr.Message
	}
	return &engine.ConstraintError{
		Type:       kind,
		Table:      table,
		Field:      field,
		Constraint: pgErr.ConstraintName,
		Detail:     detail,
	}
}

// extractFieldFromDetail extracts field name from error detail
// Input: "Key (email)=(test@mail.com) already exists."
// Output: "email"
func extractFieldFromDetail(detail string) string {
	if detail == "" {
		return ""
	}

	start := strings.Index(detail, "(")
	end := strings.Index(detail, ")")
	if start >= 0 && end > start {
		return detail[start+1 : end]
	}

	return ""
}

// extractFieldFromMessage extracts a quoted name from an error message
// Input: 'null value in column "email" of relation "users" violates ...'
// Output: "email"
func extractFieldFromMessage(message string) string {
	start := strings.Index(message, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(message[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return message[start+1 : start+1+end]
}
