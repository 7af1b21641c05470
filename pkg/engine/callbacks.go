package engine

import "fmt"

// FieldCallback inspects one field. A non-empty result becomes the field's
// error message.
type FieldCallback func(value Value, record Record) string

// TableCallback inspects the whole record once field checks pass. A
// non-empty result replaces the validation result.
type TableCallback func(record Record) ValidationErrors

// CallbackRegistry stores custom validation callbacks. Field callbacks are
// keyed "table.field", table callbacks by table name. Registration must be
// complete before the registry is used from more than one goroutine.
type CallbackRegistry struct {
	fields map[string]FieldCallback
	tables map[string]TableCallback
}

// NewCallbackRegistry returns an empty registry
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{
		fields: make(map[string]FieldCallback),
		tables: make(map[string]TableCallback),
	}
}

// Register stores cb under key. cb must be a FieldCallback or a
// TableCallback (or a plain func with one of those signatures). The last
// registration for a key wins.
func (r *CallbackRegistry) Register(key string, cb any) error {
	switch fn := cb.(type) {
	case FieldCallback:
		r.fields[key] = fn
	case func(Value, Record) string:
		r.fields[key] = fn
	case TableCallback:
		r.tables[key] = fn
	case func(Record) ValidationErrors:
		r.tables[key] = fn
	default:
		return fmt.Errorf("unsupported callback type %T for %q", cb, key)
	}
	return nil
}

// RegisterField stores a callback for table.field
func (r *CallbackRegistry) RegisterField(table, field string, cb FieldCallback) {
	r.fields[FieldKey(table, field)] = cb
}

// RegisterTable stores a whole-record callback for table
func (r *CallbackRegistry) RegisterTable(table string, cb TableCallback) {
	r.tables[table] = cb
}

// Field looks up a field callback by its "table.field" key
func (r *CallbackRegistry) Field(key string) (FieldCallback, bool) {
	if r == nil {
		return nil, false
	}
	cb, ok := r.fields[key]
	return cb, ok
}

// Table looks up a table callback
func (r *CallbackRegistry) Table(key string) (TableCallback, bool) {
	if r == nil {
		return nil, false
	}
	cb, ok := r.tables[key]
	return cb, ok
}

// FieldKey builds the "table.field" registry key
func FieldKey(table, field string) string {
	return table + "." + field
}
