package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// Validator checks a record against its table schema and the database
type Validator struct {
	provider  SchemaProvider
	querier   Querier
	callbacks *CallbackRegistry
	messages  Messages
	debug     *DebugContext
}

// NewValidator wires a validator. callbacks may be nil.
func NewValidator(provider SchemaProvider, querier Querier, callbacks *CallbackRegistry) *Validator {
	if callbacks == nil {
		callbacks = NewCallbackRegistry()
	}
	return &Validator{
		provider:  provider,
		querier:   querier,
		callbacks: callbacks,
		messages:  DefaultMessages(),
	}
}

// WithMessages replaces the default message templates
func (v *Validator) WithMessages(messages Messages) *Validator {
	if messages != nil {
		v.messages = messages
	}
	return v
}

// WithDebug sets the debug context used to time validations
func (v *Validator) WithDebug(debug *DebugContext) *Validator {
	v.debug = debug
	return v
}

// Validate checks data for table. messages overrides the validator's
// templates when non-nil; schema is looked up from the provider when nil.
// An empty result means the record is valid.
func (v *Validator) Validate(ctx context.Context, table string, data Record, messages Messages, schema *TableSchema) (ValidationErrors, error) {
	start := time.Now()
	defer func() { DebugFromContext(ctx, v.debug).LogTrace("VALIDATE", table, time.Since(start)) }()

	if messages == nil {
		messages = v.messages
	}
	if schema == nil {
		var err error
		schema, err = lookupTable(ctx, v.provider, table)
		if err != nil {
			return nil, err
		}
	}

	errs := make(ValidationErrors)

	// Unknown fields stop validation before any lookup runs.
	for _, field := range data.Fields() {
		if !schema.HasColumn(field) {
			errs[field] = messages.Format(ErrInvalid, field, table, "")
		}
	}
	if len(errs) > 0 {
		return errs, nil
	}

	for _, col := range schema.Columns {
		if err := v.checkColumn(ctx, table, col, data, messages, errs); err != nil {
			return nil, err
		}
	}

	if len(errs) == 0 {
		if cb, ok := v.callbacks.Table(table); ok {
			if result := cb(data); len(result) > 0 {
				return result, nil
			}
		}
	}

	return errs, nil
}

// checkColumn applies the per-column rules in order. Each rule either
// records an error or accepts the value and stops further checks.
func (v *Validator) checkColumn(ctx context.Context, table string, col *Column, data Record, messages Messages, errs ValidationErrors) error {
	value, present := data[col.Name]

	if col.Primary {
		if !present || value.IsEmpty() {
			return nil
		}
		found, err := v.exists(ctx, table, col.Name, value)
		if err != nil {
			return err
		}
		if !found {
			errs[col.Name] = messages.Format(ErrMissing, col.Name, table, "")
		}
		return nil
	}

	kind := col.Kind()

	if kind == KindBoolean && present && isBooleanLiteral(value) {
		return nil
	}

	if !present || value.IsEmpty() {
		if !col.HasDefault && !col.Nullable {
			errs[col.Name] = messages.Format(ErrRequired, col.Name, table, "")
		}
		return nil
	}

	if col.ForeignKey != nil {
		found, err := v.exists(ctx, col.ForeignKey.Table, col.ForeignKey.Column, value)
		if err != nil {
			return err
		}
		if !found {
			errs[col.Name] = messages.Format(ErrForeignKey, col.Name, table, col.ForeignKey.Table)
		}
		return nil
	}

	if kind == KindInteger {
		if !isIntegerValue(value) {
			errs[col.Name] = messages.Format(ErrInteger, col.Name, table, "")
			return nil
		}
	}

	if kind == KindText {
		if limit, ok := col.MaxLength(); ok && utf8.RuneCountInString(value.Text()) > limit {
			errs[col.Name] = messages.Format(ErrLength, col.Name, table, strconv.Itoa(limit))
		}
	}

	if cb, ok := v.callbacks.Field(FieldKey(table, col.Name)); ok {
		if msg := cb(value, data); msg != "" {
			errs[col.Name] = msg
		}
	}

	return nil
}

// exists runs the single-row existence lookup used by primary and foreign
// key checks.
func (v *Validator) exists(ctx context.Context, table, column string, value Value) (bool, error) {
	if v.querier == nil {
		return false, fmt.Errorf("no querier configured for lookup on %s", table)
	}
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? LIMIT 1", table, column)
	_, ok, err := v.querier.QueryScalar(ctx, query, value.Interface())
	if err != nil {
		return false, fmt.Errorf("lookup on %s.%s failed: %w", table, column, err)
	}
	return ok, nil
}

// isBooleanLiteral accepts 0, 1, "0", "1" and true/false
func isBooleanLiteral(value Value) bool {
	switch value.Kind() {
	case ValueBoolean:
		return true
	case ValueInteger:
		i, _ := value.Int()
		return i == 0 || i == 1
	case ValueString:
		s, _ := value.Str()
		return s == "0" || s == "1"
	default:
		return false
	}
}

// isIntegerValue accepts integers and strings made only of ASCII digits
func isIntegerValue(value Value) bool {
	switch value.Kind() {
	case ValueInteger:
		return true
	case ValueString:
		s, _ := value.Str()
		return isDigits(s)
	default:
		return false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
