// Package postgres connects the engine to PostgreSQL through pgx. Importing
// it registers the "postgres" driver with engine.Open.
package postgres

import (
	"context"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/dexit/ACRUD/pkg/engine/introspect"
)

// DriverName is the name registered with the engine
const DriverName = "postgres"

func init() {
	engine.RegisterDriver(DriverName, engine.DriverFunc(Open))
}

// Open connects with the pool settings carried by dsn
func Open(ctx context.Context, dsn string) (*engine.Backend, error) {
	return OpenWithConfig(ctx, ConnectorConfig{URL: dsn})
}

// OpenWithConfig connects a pool and returns an executor and an
// introspecting schema provider sharing it.
func OpenWithConfig(ctx context.Context, config ConnectorConfig) (*engine.Backend, error) {
	connector := NewConnector(config)
	if err := connector.Connect(ctx); err != nil {
		return nil, err
	}

	pool := connector.Pool()
	provider := introspect.NewProvider(introspect.NewPostgres(pool))
	executor := NewExecutor(pool, provider)

	return engine.NewBackend(DriverName, executor, provider, func() error {
		connector.Close()
		return nil
	}), nil
}
