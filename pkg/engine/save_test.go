package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDispatcher(db *fakeDB) *SaveDispatcher {
	return NewSaveDispatcher(db, NewStaticProvider(usersCatalog())).WithClock(fixedClock)
}

func TestSave_InsertStampsBothTimestamps(t *testing.T) {
	db := newFakeDB()
	d := newTestDispatcher(db)
	data := Record{"name": String("Bob"), "email": String("bob@x.com")}

	id, err := d.Save(context.Background(), "users", data, nil)

	require.NoError(t, err)
	require.Equal(t, Integer(42), id)
	require.Len(t, db.inserts, 1)
	require.Empty(t, db.updates)
	require.Equal(t, Record{
		"name":       String("Bob"),
		"email":      String("bob@x.com"),
		"created_at": String(fixedStamp),
		"updated_at": String(fixedStamp),
	}, db.inserts[0].Data)

	// The caller's record is left alone
	require.Equal(t, Record{"name": String("Bob"), "email": String("bob@x.com")}, data)
}

func TestSave_UpdateStripsKeyAndCreatedAt(t *testing.T) {
	db := newFakeDB()
	d := newTestDispatcher(db)

	id, err := d.Save(context.Background(), "users", Record{
		"id":         Integer(42),
		"name":       String("Bob Jr"),
		"created_at": String("1999-01-01 00:00:00"),
		"updated_at": String("1999-01-01 00:00:00"),
	}, nil)

	require.NoError(t, err)
	require.Equal(t, Integer(42), id)
	require.Empty(t, db.inserts)
	require.Len(t, db.updates, 1)
	require.Equal(t, Integer(42), db.updates[0].ID)
	require.Equal(t, Record{
		"name":       String("Bob Jr"),
		"updated_at": String(fixedStamp),
	}, db.updates[0].Data)
}

func TestSave_EmptyKeyInserts(t *testing.T) {
	db := newFakeDB()
	d := newTestDispatcher(db)

	_, err := d.Save(context.Background(), "users", Record{
		"id":   String(""),
		"name": String("Bob"),
	}, nil)

	require.NoError(t, err)
	require.Len(t, db.inserts, 1)
	require.False(t, db.inserts[0].Data.Has("id"))
}

func TestSave_ZeroKeyInserts(t *testing.T) {
	db := newFakeDB()
	d := newTestDispatcher(db)

	id, err := d.Save(context.Background(), "users", Record{
		"id":   Integer(0),
		"name": String("Bob"),
	}, nil)

	require.NoError(t, err)
	require.Equal(t, Integer(42), id)
	require.Empty(t, db.updates)
	require.Len(t, db.inserts, 1)
	require.False(t, db.inserts[0].Data.Has("id"))
}

func TestSave_UpdateWithNothingToSetIsNoop(t *testing.T) {
	db := newFakeDB()
	d := newTestDispatcher(db)

	id, err := d.Save(context.Background(), "teams", Record{"id": Integer(5)}, nil)

	require.NoError(t, err)
	require.Equal(t, Integer(5), id)
	require.Empty(t, db.updates)
	require.Empty(t, db.inserts)
}

func TestSave_TableWithoutTimestamps(t *testing.T) {
	db := newFakeDB()
	d := newTestDispatcher(db)

	_, err := d.Save(context.Background(), "teams", Record{
		"title":      String("core"),
		"created_at": String("ignored"),
	}, nil)

	require.NoError(t, err)
	require.Equal(t, Record{"title": String("core")}, db.inserts[0].Data)
}

func TestPrepare(t *testing.T) {
	d := NewSaveDispatcher(nil, nil).WithClock(fixedClock)
	schema := usersCatalog().Table("users")

	insert := d.Prepare("users", Record{"name": String("a")}, schema)
	require.False(t, insert.Update)
	require.True(t, insert.ID.IsNull())

	zero := d.Prepare("users", Record{"id": Integer(0), "name": String("a")}, schema)
	require.False(t, zero.Update)
	require.False(t, zero.Data.Has("id"))

	update := d.Prepare("users", Record{"id": String("9"), "name": String("a")}, schema)
	require.True(t, update.Update)
	require.Equal(t, String("9"), update.ID)
	require.False(t, update.Data.Has("created_at"))
	require.Equal(t, String(fixedStamp), update.Data["updated_at"])
}

func TestSave_UpdateMatchedNothing(t *testing.T) {
	db := newFakeDB()
	db.updateOK = false
	d := newTestDispatcher(db)

	id, err := d.Save(context.Background(), "users", Record{"id": Integer(5), "name": String("x")}, nil)

	require.True(t, id.IsNull())
	require.ErrorIs(t, err, ErrNoRowsUpdated)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	require.Equal(t, "UPDATE", writeErr.Operation)
	require.Equal(t, "users", writeErr.Table)
	require.Equal(t, "WRITE_FAILED", ErrorCode(err))
}

func TestSave_InsertFailureIsWrapped(t *testing.T) {
	db := newFakeDB()
	db.insertErr = &ConstraintError{Type: "unique", Table: "users", Field: "email"}
	d := newTestDispatcher(db)

	_, err := d.Save(context.Background(), "users", Record{"name": String("x")}, nil)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	require.Equal(t, "INSERT", writeErr.Operation)

	var constraint *ConstraintError
	require.ErrorAs(t, err, &constraint)
	require.Equal(t, "email", constraint.Field)
	require.Contains(t, err.Error(), "INSERT on users failed")
}

func TestSave_UpdateFailureIsWrapped(t *testing.T) {
	db := newFakeDB()
	db.updateErr = errors.New("deadlock detected")
	d := newTestDispatcher(db)

	_, err := d.Save(context.Background(), "users", Record{"id": Integer(5)}, nil)
	require.ErrorIs(t, err, db.updateErr)
}

func TestSave_UnknownTable(t *testing.T) {
	d := newTestDispatcher(newFakeDB())

	_, err := d.Save(context.Background(), "ghosts", Record{}, nil)

	var unknown *UnknownTableError
	require.ErrorAs(t, err, &unknown)
}
