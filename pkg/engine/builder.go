package engine

import (
	"context"
	"fmt"
	"os"
)

type saveBuilder struct {
	engine *Engine
	table  string
	values Record
	debug  bool
}

func newSaveBuilder(e *Engine, table string) SaveMutation {
	return &saveBuilder{engine: e, table: table, values: make(Record)}
}

// Set implements SaveMutation
func (b *saveBuilder) Set(field string, value any) SaveMutation {
	v, err := ValueOf(value)
	if err != nil {
		return newInvalidSaveMutation(fmt.Errorf("field %s: %w", field, err))
	}
	b.values[field] = v
	return b
}

// Debug implements SaveMutation
func (b *saveBuilder) Debug() SaveMutation {
	b.debug = true
	return b
}

// Execute implements SaveMutation
func (b *saveBuilder) Execute(ctx context.Context) (*SaveResult, error) {
	if b.debug {
		ctx = ContextWithDebug(ctx, &DebugContext{
			Level:       DebugSQL,
			Writer:      os.Stdout,
			ColorOutput: true,
		})
	}
	return b.engine.ValidateAndSave(ctx, b.table, b.values)
}
