package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/dexit/ACRUD/pkg/engine/mutation"
	"github.com/google/uuid"
)

// DB is the subset of *sql.DB the executor uses
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor runs the engine's lookups and writes against MySQL
type Executor struct {
	db       DB
	provider engine.SchemaProvider
	dialect  mutation.Dialect
	debug    *engine.DebugContext
}

// NewExecutor creates an executor. provider resolves primary key columns.
func NewExecutor(db DB, provider engine.SchemaProvider) *Executor {
	return &Executor{
		db:       db,
		provider: provider,
		dialect:  mutation.MySQL,
		debug:    engine.DefaultDebugContext(),
	}
}

// SetDebug implements engine.DebugSetter
func (ex *Executor) SetDebug(debug *engine.DebugContext) {
	ex.debug = debug
}

// SetProvider implements engine.ProviderSetter
func (ex *Executor) SetProvider(provider engine.SchemaProvider) {
	ex.provider = provider
}

// QueryScalar implements engine.Querier
func (ex *Executor) QueryScalar(ctx context.Context, query string, args ...any) (any, bool, error) {
	engine.DebugFromContext(ctx, ex.debug).LogSQL(query, args)

	var value any
	err := ex.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Insert implements engine.Writer. Auto-increment keys come back through
// LastInsertId; UUID keys without a default are generated here.
func (ex *Executor) Insert(ctx context.Context, table string, data engine.Record) (engine.Value, error) {
	pk, err := ex.primaryKey(ctx, table)
	if err != nil {
		return engine.Null(), err
	}

	var supplied engine.Value
	if pk != nil {
		supplied = data[pk.Name]
		if supplied.IsEmpty() && !pk.HasDefault && isUUIDColumn(pk) {
			supplied = engine.String(uuid.New().String())
			data = data.Clone()
			data[pk.Name] = supplied
		}
	}

	stmt := ex.dialect.Insert(table, data, "")
	engine.DebugFromContext(ctx, ex.debug).LogSQL(stmt.SQL, stmt.Args)

	res, err := ex.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return engine.Null(), mapDatabaseError(err, table, "INSERT")
	}

	if !supplied.IsEmpty() {
		return supplied, nil
	}

	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return engine.Null(), nil
	}
	return engine.Integer(id), nil
}

// Update implements engine.Writer. MySQL reports zero affected rows when
// the values are unchanged, so success means the statement ran.
func (ex *Executor) Update(ctx context.Context, table string, data engine.Record, id engine.Value) (bool, error) {
	pk, err := ex.primaryKey(ctx, table)
	if err != nil {
		return false, err
	}
	if pk == nil {
		return false, fmt.Errorf("table %s has no primary key", table)
	}

	stmt, err := ex.dialect.Update(table, data, pk.Name, id)
	if err != nil {
		return false, err
	}
	engine.DebugFromContext(ctx, ex.debug).LogSQL(stmt.SQL, stmt.Args)

	if _, err := ex.db.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return false, mapDatabaseError(err, table, "UPDATE")
	}
	return true, nil
}

func (ex *Executor) primaryKey(ctx context.Context, table string) (*engine.Column, error) {
	if ex.provider == nil {
		return nil, fmt.Errorf("no schema provider to resolve the primary key of %s", table)
	}
	catalog, err := ex.provider.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	schema := catalog.Table(table)
	if schema == nil {
		return nil, &engine.UnknownTableError{Table: table}
	}
	return schema.PrimaryKey(), nil
}

// isUUIDColumn treats CHAR(36) and BINARY(16) keys as UUIDs, MySQL has no
// native UUID type.
func isUUIDColumn(col *engine.Column) bool {
	if col.Kind() == engine.KindUUID {
		return true
	}
	n, ok := col.MaxLength()
	return ok && n == 36 && col.Kind() == engine.KindText
}
