// Package mysql connects the engine to MySQL through database/sql and
// go-sql-driver/mysql. Importing it registers the "mysql" driver with
// engine.Open.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/dexit/ACRUD/pkg/engine/introspect"
)

// DriverName is the name registered with the engine
const DriverName = "mysql"

// PoolConfig tunes the database/sql pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns sensible defaults
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

func init() {
	engine.RegisterDriver(DriverName, engine.DriverFunc(Open))
}

// Open connects with the default pool settings
func Open(ctx context.Context, dsn string) (*engine.Backend, error) {
	return OpenWithPool(ctx, dsn, DefaultPoolConfig())
}

// OpenWithPool connects and returns an executor and an introspecting
// schema provider sharing one pool.
func OpenWithPool(ctx context.Context, dsn string, pool PoolConfig) (*engine.Backend, error) {
	driverDSN, err := introspect.MySQLDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	provider := introspect.NewProvider(introspect.NewMySQL(db))
	executor := NewExecutor(db, provider)

	return engine.NewBackend(DriverName, executor, provider, db.Close), nil
}
