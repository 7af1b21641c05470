package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeResult struct {
	lastID   int64
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return r.lastID, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

type call struct {
	query string
	args  []any
}

type fakeDB struct {
	execs  []call
	result sql.Result
	err    error
}

func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.execs = append(f.execs, call{query, args})
	return f.result, f.err
}

func (f *fakeDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	panic("not used")
}

func testProvider() engine.SchemaProvider {
	return engine.NewStaticProvider(engine.Catalog{
		"users": {Name: "users", Columns: []*engine.Column{
			{Name: "id", Type: "int(11)", Primary: true, HasDefault: true},
			{Name: "name", Type: "varchar(50)"},
		}},
		"sessions": {Name: "sessions", Columns: []*engine.Column{
			{Name: "token", Type: "char(36)", Primary: true},
			{Name: "user_id", Type: "int"},
		}},
		"log": {Name: "log", Columns: []*engine.Column{
			{Name: "line", Type: "text"},
		}},
	})
}

func TestInsert_UsesLastInsertID(t *testing.T) {
	db := &fakeDB{result: fakeResult{lastID: 42}}
	ex := NewExecutor(db, testProvider())

	id, err := ex.Insert(context.Background(), "users", engine.Record{"name": engine.String("Bob")})

	require.NoError(t, err)
	require.Equal(t, engine.Integer(42), id)
	require.Equal(t, "INSERT INTO `users` (`name`) VALUES (?)", db.execs[0].query)
	require.Equal(t, []any{"Bob"}, db.execs[0].args)
}

func TestInsert_GeneratesCharUUIDKey(t *testing.T) {
	db := &fakeDB{result: fakeResult{}}
	ex := NewExecutor(db, testProvider())
	data := engine.Record{"user_id": engine.Integer(1)}

	id, err := ex.Insert(context.Background(), "sessions", data)

	require.NoError(t, err)
	text, ok := id.Str()
	require.True(t, ok)
	_, parseErr := uuid.Parse(text)
	require.NoError(t, parseErr)
	require.Equal(t, text, db.execs[0].args[0])
	require.False(t, data.Has("token"))
}

func TestInsert_SuppliedKeyIsReturned(t *testing.T) {
	db := &fakeDB{result: fakeResult{}}
	ex := NewExecutor(db, testProvider())

	id, err := ex.Insert(context.Background(), "sessions", engine.Record{"token": engine.String("abc")})
	require.NoError(t, err)
	require.Equal(t, engine.String("abc"), id)
}

func TestInsert_NoKey(t *testing.T) {
	ex := NewExecutor(&fakeDB{result: fakeResult{}}, testProvider())

	id, err := ex.Insert(context.Background(), "log", engine.Record{"line": engine.String("x")})
	require.NoError(t, err)
	require.True(t, id.IsNull())
}

func TestUpdate_SucceedsWhenStatementRuns(t *testing.T) {
	db := &fakeDB{result: fakeResult{affected: 0}}
	ex := NewExecutor(db, testProvider())

	ok, err := ex.Update(context.Background(), "users", engine.Record{"name": engine.String("Bob")}, engine.Integer(3))

	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "UPDATE `users` SET `name` = ? WHERE `id` = ?", db.execs[0].query)
	require.Equal(t, []any{"Bob", int64(3)}, db.execs[0].args)
}

func TestUpdate_Errors(t *testing.T) {
	ex := NewExecutor(&fakeDB{}, testProvider())

	_, err := ex.Update(context.Background(), "log", engine.Record{"line": engine.String("x")}, engine.Integer(1))
	require.Error(t, err)

	boom := errors.New("bad connection")
	ex = NewExecutor(&fakeDB{err: boom}, testProvider())
	_, err = ex.Update(context.Background(), "users", engine.Record{"name": engine.String("x")}, engine.Integer(1))
	require.ErrorIs(t, err, boom)
}

func TestIsUUIDColumn(t *testing.T) {
	require.True(t, isUUIDColumn(&engine.Column{Type: "char(36)"}))
	require.True(t, isUUIDColumn(&engine.Column{Type: "uuid"}))
	require.False(t, isUUIDColumn(&engine.Column{Type: "varchar(255)"}))
	require.False(t, isUUIDColumn(&engine.Column{Type: "int"}))
}

func TestDriverRegistered(t *testing.T) {
	require.Contains(t, engine.Drivers(), DriverName)
	require.Equal(t, DriverName, engine.DetectDriver("mysql://root@localhost/app"))
}

func TestDefaultPoolConfig(t *testing.T) {
	pool := DefaultPoolConfig()
	require.Equal(t, 10, pool.MaxOpenConns)
	require.LessOrEqual(t, pool.MaxIdleConns, pool.MaxOpenConns)
	require.Greater(t, int64(pool.ConnMaxLifetime), int64(0))
}
