package mysql

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/dexit/ACRUD/pkg/engine"
	mysqldriver "github.com/go-sql-driver/mysql"
)

var (
	duplicateKeyPattern = regexp.MustCompile(`for key '([^']+)'`)
	foreignKeyPattern   = regexp.MustCompile("FOREIGN KEY \\(`([^`]+)`\\)")
	columnPattern       = regexp.MustCompile(`Column '([^']+)'`)
	fieldPattern        = regexp.MustCompile(`Field '([^']+)'`)
	constraintPattern   = regexp.MustCompile("CONSTRAINT `([^`]+)`")
)

// mapDatabaseError converts MySQL server errors to engine error types
func mapDatabaseError(err error, table string, operation string) error {
	if err == nil {
		return nil
	}

	var myErr *mysqldriver.MySQLError
	if !errors.As(err, &myErr) {
		return fmt.Errorf("%s failed: %w", operation, err)
	}

	// See: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
	switch myErr.Number {
	case 1062: // ER_DUP_ENTRY
		return &engine.ConstraintError{
			Type:       "unique",
			Table:      table,
			Constraint: firstMatch(duplicateKeyPattern, myErr.Message),
			Detail:     myErr.Message,
		}

	case 1451, 1452: // ER_ROW_IS_REFERENCED_2, ER_NO_REFERENCED_ROW_2
		return &engine.ConstraintError{
			Type:       "foreign_key",
			Table:      table,
			Field:      firstMatch(foreignKeyPattern, myErr.Message),
			Constraint: firstMatch(constraintPattern, myErr.Message),
			Detail:     myErr.Message,
		}

	case 1048, 1364: // ER_BAD_NULL_ERROR, ER_NO_DEFAULT_FOR_FIELD
		field := firstMatch(columnPattern, myErr.Message)
		if field == "" {
			field = firstMatch(fieldPattern, myErr.Message)
		}
		return &engine.ConstraintError{
			Type:   "not_null",
			Table:  table,
			Field:  field,
			Detail: myErr.Message,
		}

	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		return &engine.ConstraintError{
			Type:   "check",
			Table:  table,
			Detail: myErr.Message,
		}

	case 1146: // ER_NO_SUCH_TABLE
		return &engine.UnknownTableError{Table: table}

	default:
		return fmt.Errorf("%s failed: %s (code: %d): %w", operation, myErr.Message, myErr.Number, err)
	}
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
