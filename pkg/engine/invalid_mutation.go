package engine

import (
	"context"
)

type invalidSaveMutation struct {
	err error
}

func newInvalidSaveMutation(err error) SaveMutation {
	return &invalidSaveMutation{err: err}
}

func (m *invalidSaveMutation) Set(field string, value any) SaveMutation {
	return m
}

func (m *invalidSaveMutation) Debug() SaveMutation {
	return m
}

func (m *invalidSaveMutation) Execute(ctx context.Context) (*SaveResult, error) {
	return nil, m.err
}
