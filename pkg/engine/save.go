package engine

import (
	"context"
	"time"
)

// TimestampLayout is the format written to created_at and updated_at
const TimestampLayout = "2006-01-02 15:04:05"

const (
	createdAtColumn = "created_at"
	updatedAtColumn = "updated_at"
)

// Payload is the write a save will issue. It is built from, and never
// aliases, the caller's record.
type Payload struct {
	Table  string
	Data   Record
	ID     Value
	Update bool
}

// SaveDispatcher chooses between insert and update and manages the
// bookkeeping columns. It does not validate.
type SaveDispatcher struct {
	writer   Writer
	provider SchemaProvider
	now      func() time.Time
	debug    *DebugContext
}

// NewSaveDispatcher wires a dispatcher. provider is only consulted when
// Save is called without a schema.
func NewSaveDispatcher(writer Writer, provider SchemaProvider) *SaveDispatcher {
	return &SaveDispatcher{
		writer:   writer,
		provider: provider,
		now:      time.Now,
	}
}

// WithClock overrides the timestamp source
func (d *SaveDispatcher) WithClock(now func() time.Time) *SaveDispatcher {
	if now != nil {
		d.now = now
	}
	return d
}

// WithDebug sets the debug context used to time writes
func (d *SaveDispatcher) WithDebug(debug *DebugContext) *SaveDispatcher {
	d.debug = debug
	return d
}

// Prepare builds the payload for data without touching the database
func (d *SaveDispatcher) Prepare(table string, data Record, schema *TableSchema) Payload {
	payload := Payload{Table: table, Data: data.Clone()}

	if pk := schema.PrimaryKey(); pk != nil {
		if id, ok := data[pk.Name]; ok {
			if !id.IsEmpty() {
				payload.ID = id
				payload.Update = true
			}
			delete(payload.Data, pk.Name)
		}
	}

	stamp := String(d.now().Format(TimestampLayout))

	if schema.HasColumn(updatedAtColumn) {
		payload.Data[updatedAtColumn] = stamp
	}

	delete(payload.Data, createdAtColumn)

	if !payload.Update && schema.HasColumn(createdAtColumn) {
		payload.Data[createdAtColumn] = stamp
	}

	return payload
}

// Save writes data to table and returns the row identifier: the caller's
// primary key on update, the generated key on insert. schema is looked up
// from the provider when nil.
func (d *SaveDispatcher) Save(ctx context.Context, table string, data Record, schema *TableSchema) (Value, error) {
	if schema == nil {
		var err error
		schema, err = lookupTable(ctx, d.provider, table)
		if err != nil {
			return Null(), err
		}
	}

	payload := d.Prepare(table, data, schema)
	return d.Dispatch(ctx, payload)
}

// Dispatch issues the single write described by payload
func (d *SaveDispatcher) Dispatch(ctx context.Context, payload Payload) (Value, error) {
	start := time.Now()
	debug := DebugFromContext(ctx, d.debug)

	if payload.Update && len(payload.Data) == 0 {
		// Nothing to set; the key was already checked by validation.
		debug.LogTrace("UPDATE", payload.Table, time.Since(start))
		return payload.ID, nil
	}

	if payload.Update {
		ok, err := d.writer.Update(ctx, payload.Table, payload.Data, payload.ID)
		debug.LogTrace("UPDATE", payload.Table, time.Since(start))
		if err != nil {
			return Null(), &WriteError{Table: payload.Table, Operation: "UPDATE", Err: err}
		}
		if !ok {
			return Null(), &WriteError{Table: payload.Table, Operation: "UPDATE", Err: ErrNoRowsUpdated}
		}
		return payload.ID, nil
	}

	id, err := d.writer.Insert(ctx, payload.Table, payload.Data)
	debug.LogTrace("INSERT", payload.Table, time.Since(start))
	if err != nil {
		return Null(), &WriteError{Table: payload.Table, Operation: "INSERT", Err: err}
	}
	return id, nil
}
