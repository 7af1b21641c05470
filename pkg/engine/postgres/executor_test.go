package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	value any
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*any)) = r.value
	return nil
}

type call struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs   []call
	queries []call

	tag     pgconn.CommandTag
	execErr error
	row     fakeRow
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, call{sql, args})
	return f.tag, f.execErr
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, call{sql, args})
	return f.row
}

func testProvider() engine.SchemaProvider {
	return engine.NewStaticProvider(engine.Catalog{
		"users": {Name: "users", Columns: []*engine.Column{
			{Name: "id", Type: "integer", Primary: true, HasDefault: true},
			{Name: "name", Type: "text"},
		}},
		"sessions": {Name: "sessions", Columns: []*engine.Column{
			{Name: "token", Type: "uuid", Primary: true},
			{Name: "user_id", Type: "integer"},
		}},
		"audit": {Name: "audit", Columns: []*engine.Column{
			{Name: "message", Type: "text"},
		}},
	})
}

func TestQueryScalar_RebindsPlaceholders(t *testing.T) {
	db := &fakeDB{row: fakeRow{value: int32(1)}}
	ex := NewExecutor(db, testProvider())

	value, ok, err := ex.QueryScalar(context.Background(), "SELECT 1 FROM users WHERE id = ? LIMIT 1", int64(5))

	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(1), value)
	require.Equal(t, "SELECT 1 FROM users WHERE id = $1 LIMIT 1", db.queries[0].sql)
	require.Equal(t, []any{int64(5)}, db.queries[0].args)
}

func TestQueryScalar_NoRows(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	ex := NewExecutor(db, testProvider())

	_, ok, err := ex.QueryScalar(context.Background(), "SELECT 1 FROM users WHERE id = ? LIMIT 1", int64(5))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQueryScalar_UncastableValueMatchesNothing(t *testing.T) {
	for _, code := range []string{"22P02", "22003"} {
		db := &fakeDB{row: fakeRow{err: &pgconn.PgError{Code: code, Message: "invalid input syntax for type integer"}}}
		ex := NewExecutor(db, testProvider())

		_, ok, err := ex.QueryScalar(context.Background(), "SELECT 1 FROM users WHERE id = ? LIMIT 1", "abc")
		require.NoError(t, err, code)
		require.False(t, ok, code)
	}
}

func TestQueryScalar_OtherErrorsPropagate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	ex := NewExecutor(&fakeDB{row: fakeRow{err: pgErr}}, testProvider())

	_, _, err := ex.QueryScalar(context.Background(), "SELECT 1 FROM ghosts WHERE id = ? LIMIT 1", int64(1))
	require.ErrorIs(t, err, pgErr)
}

func TestInsert_ReturnsGeneratedID(t *testing.T) {
	db := &fakeDB{row: fakeRow{value: int64(42)}}
	ex := NewExecutor(db, testProvider())

	id, err := ex.Insert(context.Background(), "users", engine.Record{"name": engine.String("Bob")})

	require.NoError(t, err)
	require.Equal(t, engine.Integer(42), id)
	require.Equal(t, `INSERT INTO "users" ("name") VALUES ($1) RETURNING "id"`, db.queries[0].sql)
}

func TestInsert_GeneratesUUIDKey(t *testing.T) {
	db := &fakeDB{}
	ex := NewExecutor(db, testProvider())
	data := engine.Record{"user_id": engine.Integer(1)}

	db.row = fakeRow{value: nil}
	id, err := ex.Insert(context.Background(), "sessions", data)

	require.NoError(t, err)
	text, isString := id.Str()
	require.True(t, isString)
	_, parseErr := uuid.Parse(text)
	require.NoError(t, parseErr)

	require.Equal(t, []any{text, int64(1)}, db.queries[0].args)
	require.False(t, data.Has("token"), "caller record must not be modified")
}

func TestInsert_WithoutPrimaryKeyUsesExec(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("INSERT 0 1")}
	ex := NewExecutor(db, testProvider())

	id, err := ex.Insert(context.Background(), "audit", engine.Record{"message": engine.String("hi")})

	require.NoError(t, err)
	require.True(t, id.IsNull())
	require.Len(t, db.execs, 1)
	require.Empty(t, db.queries)
}

func TestInsert_MapsConstraintErrors(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: &pgconn.PgError{
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "users_name_key"`,
		Detail:         "Key (name)=(Bob) already exists.",
		ConstraintName: "users_name_key",
	}}}
	ex := NewExecutor(db, testProvider())

	_, err := ex.Insert(context.Background(), "users", engine.Record{"name": engine.String("Bob")})

	var constraint *engine.ConstraintError
	require.ErrorAs(t, err, &constraint)
	require.Equal(t, "unique", constraint.Type)
	require.Equal(t, "name", constraint.Field)
}

func TestInsert_UnknownTable(t *testing.T) {
	ex := NewExecutor(&fakeDB{}, testProvider())

	_, err := ex.Insert(context.Background(), "ghosts", engine.Record{})

	var unknown *engine.UnknownTableError
	require.ErrorAs(t, err, &unknown)
}

func TestUpdate(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	ex := NewExecutor(db, testProvider())

	ok, err := ex.Update(context.Background(), "users", engine.Record{"name": engine.String("Bob Jr")}, engine.Integer(42))

	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `UPDATE "users" SET "name" = $1 WHERE "id" = $2`, db.execs[0].sql)
	require.Equal(t, []any{"Bob Jr", int64(42)}, db.execs[0].args)
}

func TestUpdate_NoRowsMatched(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	ex := NewExecutor(db, testProvider())

	ok, err := ex.Update(context.Background(), "users", engine.Record{"name": engine.String("x")}, engine.Integer(1))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdate_RequiresPrimaryKey(t *testing.T) {
	ex := NewExecutor(&fakeDB{}, testProvider())

	_, err := ex.Update(context.Background(), "audit", engine.Record{"message": engine.String("x")}, engine.Integer(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "has no primary key")
}

func TestUpdate_WrapsDriverErrors(t *testing.T) {
	boom := errors.New("conn closed")
	ex := NewExecutor(&fakeDB{execErr: boom}, testProvider())

	_, err := ex.Update(context.Background(), "users", engine.Record{"name": engine.String("x")}, engine.Integer(1))
	require.ErrorIs(t, err, boom)
	require.True(t, strings.HasPrefix(err.Error(), "UPDATE failed"))
}

func TestSetProvider(t *testing.T) {
	ex := NewExecutor(&fakeDB{}, nil)

	_, err := ex.Insert(context.Background(), "users", engine.Record{})
	require.Error(t, err)

	ex.SetProvider(testProvider())
	_, err = ex.primaryKey(context.Background(), "users")
	require.NoError(t, err)
}

func TestNormalizeID(t *testing.T) {
	id := uuid.New()

	require.Equal(t, engine.String(id.String()), normalizeID([16]byte(id)))
	require.Equal(t, engine.String(id.String()), normalizeID(id))
	require.Equal(t, engine.Integer(7), normalizeID(int32(7)))
	require.Equal(t, engine.String("abc"), normalizeID("abc"))
	require.True(t, normalizeID(nil).IsNull())
}

func TestWithGeneratedKey(t *testing.T) {
	pk := &engine.Column{Name: "token", Type: "uuid", Primary: true}

	supplied := engine.Record{"token": engine.String("fixed")}
	out, generated := withGeneratedKey(supplied, pk)
	require.Equal(t, supplied, out)
	require.True(t, generated.IsNull())

	defaulted := &engine.Column{Name: "token", Type: "uuid", Primary: true, HasDefault: true}
	_, generated = withGeneratedKey(engine.Record{}, defaulted)
	require.True(t, generated.IsNull())

	serial := &engine.Column{Name: "id", Type: "integer", Primary: true}
	_, generated = withGeneratedKey(engine.Record{}, serial)
	require.True(t, generated.IsNull())
}
