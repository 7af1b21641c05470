package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/dexit/ACRUD/pkg/engine/mutation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the executor uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Executor runs the engine's lookups and writes against PostgreSQL
type Executor struct {
	db       DB
	provider engine.SchemaProvider
	dialect  mutation.Dialect
	debug    *engine.DebugContext
}

// NewExecutor creates an executor. provider resolves primary key columns
// for inserts and updates.
func NewExecutor(db DB, provider engine.SchemaProvider) *Executor {
	return &Executor{
		db:       db,
		provider: provider,
		dialect:  mutation.Postgres,
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
	sql := ex.dialect.Rebind(query)
	engine.DebugFromContext(ctx, ex.debug).LogSQL(sql, args)

	var value any
	err := ex.db.QueryRow(ctx, sql, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) || isDataException(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// isDataException matches SQLSTATE class 22, raised when a lookup value
// cannot be cast to the column type ("abc" against an integer key). No row
// can match such a value.
func isDataException(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "22")
}

// Insert implements engine.Writer
func (ex *Executor) Insert(ctx context.Context, table string, data engine.Record) (engine.Value, error) {
	pk, err := ex.primaryKey(ctx, table)
	if err != nil {
		return engine.Null(), err
	}

	data, generated := withGeneratedKey(data, pk)

	returning := ""
	if pk != nil {
		returning = pk.Name
	}
	stmt := ex.dialect.Insert(table, data, returning)
	engine.DebugFromContext(ctx, ex.debug).LogSQL(stmt.SQL, stmt.Args)

	if pk == nil {
		if _, err := ex.db.Exec(ctx, stmt.SQL, stmt.Args...); err != nil {
			return engine.Null(), mapDatabaseError(err, table, "INSERT")
		}
		return engine.Null(), nil
	}

	var raw any
	if err := ex.db.QueryRow(ctx, stmt.SQL, stmt.Args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return engine.Null(), fmt.Errorf("INSERT executed but returned no rows")
		}
		return engine.Null(), mapDatabaseError(err, table, "INSERT")
	}

	if raw == nil && !generated.IsNull() {
		return generated, nil
	}
	return normalizeID(raw), nil
}

// Update implements engine.Writer
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

	tag, err := ex.db.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return false, mapDatabaseError(err, table, "UPDATE")
	}
	return tag.RowsAffected() > 0, nil
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

// withGeneratedKey fills a UUID primary key the database will not fill
// itself. The caller's record is left untouched.
func withGeneratedKey(data engine.Record, pk *engine.Column) (engine.Record, engine.Value) {
	if pk == nil || pk.HasDefault || pk.Kind() != engine.KindUUID {
		return data, engine.Null()
	}
	if v, ok := data[pk.Name]; ok && !v.IsEmpty() {
		return data, engine.Null()
	}
	id := engine.String(uuid.New().String())
	out := data.Clone()
	out[pk.Name] = id
	return out, id
}

// normalizeID converts a driver value from RETURNING into a Value
func normalizeID(raw any) engine.Value {
	switch x := raw.(type) {
	case [16]byte:
		return engine.String(uuid.UUID(x).String())
	case uuid.UUID:
		return engine.String(x.String())
	}
	if v, err := engine.ValueOf(raw); err == nil {
		return v
	}
	return engine.String(fmt.Sprint(raw))
}
