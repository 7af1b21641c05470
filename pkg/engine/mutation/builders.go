package mutation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dexit/ACRUD/pkg/engine"
)

// ErrEmptyUpdate is returned when an update has no columns to set
var ErrEmptyUpdate = errors.New("update has no columns to set")

// Statement is a rendered SQL statement with its bind arguments
type Statement struct {
	SQL  string
	Args []any
}

// ============================================================
// INSERT
// ============================================================

// Insert renders INSERT INTO table (...) VALUES (...). Columns are written
// in sorted order so the SQL is stable. returning, when set, appends a
// RETURNING clause for dialects that support it.
func (d Dialect) Insert(table string, data engine.Record, returning string) Statement {
	fields := data.Fields()

	columns := make([]string, 0, len(fields))
	placeholders := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))

	for i, field := range fields {
		columns = append(columns, d.Quote(field))
		placeholders = append(placeholders, d.Placeholder(i+1))
		args = append(args, data[field].Interface())
	}

	var sql string
	if len(fields) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", d.Quote(table))
		if d.Name == MySQL.Name {
			sql = fmt.Sprintf("INSERT INTO %s () VALUES ()", d.Quote(table))
		}
	} else {
		sql = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			d.Quote(table),
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "),
		)
	}

	if returning != "" {
		sql += " RETURNING " + d.Quote(returning)
	}

	return Statement{SQL: sql, Args: args}
}

// ============================================================
// UPDATE
// ============================================================

// Update renders UPDATE table SET ... WHERE pk = ?. The key is always the
// last argument.
func (d Dialect) Update(table string, data engine.Record, pk string, id engine.Value) (Statement, error) {
	fields := data.Fields()
	if len(fields) == 0 {
		return Statement{}, ErrEmptyUpdate
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)

	for i, field := range fields {
		sets = append(sets, fmt.Sprintf("%s = %s", d.Quote(field), d.Placeholder(i+1)))
		args = append(args, data[field].Interface())
	}
	args = append(args, id.Interface())

	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = %s",
		d.Quote(table),
		strings.Join(sets, ", "),
		d.Quote(pk),
		d.Placeholder(len(fields)+1),
	)

	return Statement{SQL: sql, Args: args}, nil
}
