package engine

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Engine is the persistence session: it owns the callback registry and
// ties a schema provider and an executor to the validator and the save
// dispatcher.
type Engine struct {
	provider  SchemaProvider
	executor  Executor
	callbacks *CallbackRegistry
	messages  Messages
	now       func() time.Time

	// Debug context
	Debug *DebugContext
}

// NewEngine creates an engine over a schema provider and an executor
func NewEngine(provider SchemaProvider, executor Executor) *Engine {
	return &Engine{
		provider:  provider,
		executor:  executor,
		callbacks: NewCallbackRegistry(),
		messages:  DefaultMessages(),
		now:       time.Now,
		Debug:     DefaultDebugContext(),
	}
}

// NewEngineFromBackend creates an engine over an opened driver backend
func NewEngineFromBackend(backend *Backend) *Engine {
	return NewEngine(backend.Provider, backend.Executor)
}

// WithDebug enables debug output on the engine and its executor
func (e *Engine) WithDebug(level DebugLevel) *Engine {
	e.Debug = &DebugContext{
		Level:       level,
		Writer:      os.Stdout,
		ColorOutput: true,
	}
	if setter, ok := e.executor.(DebugSetter); ok {
		setter.SetDebug(e.Debug)
	}
	return e
}

// WithMessages overrides message templates. Kinds left out keep their
// default wording.
func (e *Engine) WithMessages(messages Messages) *Engine {
	merged := DefaultMessages()
	for kind, tmpl := range messages {
		merged[kind] = tmpl
	}
	e.messages = merged
	return e
}

// WithClock overrides the timestamp source used for created_at/updated_at
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// ─────────────────────────────────────────────────────────────
// Callbacks
// ─────────────────────────────────────────────────────────────

// Callbacks returns the session's callback registry
func (e *Engine) Callbacks() *CallbackRegistry {
	return e.callbacks
}

// RegisterField adds a custom check for table.field
func (e *Engine) RegisterField(table, field string, cb FieldCallback) *Engine {
	e.callbacks.RegisterField(table, field, cb)
	return e
}

// RegisterTable adds a whole-record check for table
func (e *Engine) RegisterTable(table string, cb TableCallback) *Engine {
	e.callbacks.RegisterTable(table, cb)
	return e
}

// ─────────────────────────────────────────────────────────────
// Schema
// ─────────────────────────────────────────────────────────────

// Catalog returns the full schema catalog
func (e *Engine) Catalog(ctx context.Context) (Catalog, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("no schema provider configured")
	}
	return e.provider.Catalog(ctx)
}

// Schema returns one table's schema or an *UnknownTableError
func (e *Engine) Schema(ctx context.Context, table string) (*TableSchema, error) {
	return lookupTable(ctx, e.provider, table)
}

// ─────────────────────────────────────────────────────────────
// Validate / Save
// ─────────────────────────────────────────────────────────────

// Validator returns a validator bound to the session
func (e *Engine) Validator() *Validator {
	return NewValidator(e.provider, e.executor, e.callbacks).
		WithMessages(e.messages).
		WithDebug(e.Debug)
}

// Dispatcher returns a save dispatcher bound to the session
func (e *Engine) Dispatcher() *SaveDispatcher {
	return NewSaveDispatcher(e.executor, e.provider).
		WithClock(e.now).
		WithDebug(e.Debug)
}

// Validate checks data against table's schema
func (e *Engine) Validate(ctx context.Context, table string, data Record) (ValidationErrors, error) {
	e.ensureConfigured()
	return e.Validator().Validate(ctx, table, data, nil, nil)
}

// Save writes data without validating it. Callers should Validate first.
func (e *Engine) Save(ctx context.Context, table string, data Record) (*SaveResult, error) {
	e.ensureConfigured()

	schema, err := e.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	return e.save(ctx, table, data, schema)
}

// ValidateAndSave validates data and saves it when valid. Validation
// failures are returned as a ValidationErrors error.
func (e *Engine) ValidateAndSave(ctx context.Context, table string, data Record) (*SaveResult, error) {
	e.ensureConfigured()

	schema, err := e.Schema(ctx, table)
	if err != nil {
		return nil, err
	}

	errs, err := e.Validator().Validate(ctx, table, data, nil, schema)
	if err != nil {
		return nil, err
	}
	if !errs.Valid() {
		return nil, errs
	}

	return e.save(ctx, table, data, schema)
}

func (e *Engine) save(ctx context.Context, table string, data Record, schema *TableSchema) (*SaveResult, error) {
	dispatcher := e.Dispatcher()
	payload := dispatcher.Prepare(table, data, schema)

	id, err := dispatcher.Dispatch(ctx, payload)
	if err != nil {
		return nil, err
	}

	return &SaveResult{
		ID:       id,
		Inserted: !payload.Update,
		Payload:  payload.Data,
	}, nil
}

// Record starts a fluent save on table
func (e *Engine) Record(table string) SaveMutation {
	if e.provider == nil || e.executor == nil {
		return newInvalidSaveMutation(fmt.Errorf("engine is not connected to a database"))
	}
	return newSaveBuilder(e, table)
}

func (e *Engine) ensureConfigured() {
	if e.provider == nil {
		panic("no schema provider - create the engine with NewEngine(provider, executor)")
	}
	if e.executor == nil {
		panic("no executor - create the engine with NewEngine(provider, executor)")
	}
}
