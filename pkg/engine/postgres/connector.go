package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectorConfig describes where the executor's pool connects. A URL
// (what DATABASE_URL usually holds) takes precedence over the discrete
// fields.
type ConnectorConfig struct {
	URL string

	Host     string
	Port     int
	Database string
	User     string
	Password string
	// SSLMode defaults to "disable"
	SSLMode string

	MaxConns       int32
	MinConns       int32
	MaxIdleTime    time.Duration
	ConnectTimeout time.Duration
}

// DefaultConfig points at a local acrud database
func DefaultConfig() ConnectorConfig {
	return ConnectorConfig{
		Host:           "localhost",
		Port:           5432,
		Database:       "acrud",
		User:           "postgres",
		SSLMode:        "disable",
		MaxConns:       10,
		MinConns:       2,
		MaxIdleTime:    5 * time.Minute,
		ConnectTimeout: 10 * time.Second,
	}
}

// ConnectionString returns the URL, or a libpq keyword/value DSN built from
// the discrete fields with values quoted as needed.
func (c ConnectorConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	pairs := []string{
		"host=" + quoteDSNValue(c.Host),
		fmt.Sprintf("port=%d", c.Port),
		"dbname=" + quoteDSNValue(c.Database),
		"user=" + quoteDSNValue(c.User),
		"password=" + quoteDSNValue(c.Password),
		"sslmode=" + sslMode,
	}
	if c.ConnectTimeout > 0 {
		pairs = append(pairs, fmt.Sprintf("connect_timeout=%d", int(c.ConnectTimeout.Seconds())))
	}
	return strings.Join(pairs, " ")
}

// quoteDSNValue single-quotes empty values and values with spaces, quotes
// or backslashes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Connector owns the pgx pool shared by the executor and the introspector
type Connector struct {
	pool   *pgxpool.Pool
	config ConnectorConfig
}

// NewConnector stores config; Connect opens the pool
func NewConnector(config ConnectorConfig) *Connector {
	return &Connector{config: config}
}

// Connect opens the pool and pings it
func (c *Connector) Connect(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(c.config.ConnectionString())
	if err != nil {
		return fmt.Errorf("invalid connection config: %w", err)
	}

	if c.config.MaxConns > 0 {
		poolConfig.MaxConns = c.config.MaxConns
	}
	if c.config.MinConns > 0 {
		poolConfig.MinConns = c.config.MinConns
	}
	if c.config.MaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = c.config.MaxIdleTime
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = "acrud"
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	c.pool = pool
	return nil
}

// Pool is nil until Connect succeeds
func (c *Connector) Pool() *pgxpool.Pool {
	return c.pool
}

func (c *Connector) IsConnected() bool {
	return c.pool != nil
}

// Ping checks the pool is still reachable
func (c *Connector) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected")
	}
	return c.pool.Ping(ctx)
}

// Close releases the pool; safe to call twice
func (c *Connector) Close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}
