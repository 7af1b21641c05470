package engine

import "context"

// ============================================================
// DATABASE CONTRACTS
// ============================================================

// Querier runs single-value lookups. Queries use "?" placeholders; drivers
// that need another style rebind them. ok is false when no row matched.
type Querier interface {
	QueryScalar(ctx context.Context, query string, args ...any) (value any, ok bool, err error)
}

// Writer performs the single write issued by a save
type Writer interface {
	// Insert stores data and returns the new row's identifier
	Insert(ctx context.Context, table string, data Record) (Value, error)

	// Update applies data to the row identified by id. It reports whether
	// the write succeeded.
	Update(ctx context.Context, table string, data Record, id Value) (bool, error)
}

// Executor is the full driver surface the engine needs
type Executor interface {
	Querier
	Writer
}

// DebugSetter is implemented by executors that print their SQL
type DebugSetter interface {
	SetDebug(debug *DebugContext)
}

// ProviderSetter is implemented by executors that resolve primary keys
// through a schema provider
type ProviderSetter interface {
	SetProvider(provider SchemaProvider)
}

// ============================================================
// SAVE BUILDER
// ============================================================

// SaveMutation builds a record field by field, then validates and saves it
type SaveMutation interface {
	// Set adds a field to the record
	Set(field string, value any) SaveMutation

	// Debug enables SQL output for this save
	Debug() SaveMutation

	// Execute validates and runs the save
	Execute(ctx context.Context) (*SaveResult, error)
}
