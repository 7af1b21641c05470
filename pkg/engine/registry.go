package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Driver opens a backend for a connection string
type Driver interface {
	Open(ctx context.Context, dsn string) (*Backend, error)
}

// DriverFunc adapts a function to Driver
type DriverFunc func(ctx context.Context, dsn string) (*Backend, error)

// Open implements Driver
func (f DriverFunc) Open(ctx context.Context, dsn string) (*Backend, error) {
	return f(ctx, dsn)
}

// Backend is an opened database: its executor, a schema provider over the
// same connection, and a close hook.
type Backend struct {
	Driver   string
	Executor Executor
	Provider SchemaProvider
	closer   func() error
}

// NewBackend assembles a backend
func NewBackend(driver string, executor Executor, provider SchemaProvider, closer func() error) *Backend {
	return &Backend{
		Driver:   driver,
		Executor: executor,
		Provider: provider,
		closer:   closer,
	}
}

// WithProvider replaces the backend's schema provider, for example with a
// schema file or a cache. The executor is switched over too.
func (b *Backend) WithProvider(provider SchemaProvider) *Backend {
	if provider == nil {
		return b
	}
	b.Provider = provider
	if setter, ok := b.Executor.(ProviderSetter); ok {
		setter.SetProvider(provider)
	}
	return b
}

// Close releases the backend's connections
func (b *Backend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer()
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver makes a driver available by name. Driver packages call
// it from init. A nil driver is ignored; the first registration wins.
func RegisterDriver(name string, driver Driver) {
	if driver == nil {
		return
	}
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, exists := drivers[name]; !exists {
		drivers[name] = driver
	}
}

// Drivers lists registered driver names
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getDriver(name string) (Driver, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	return d, ok
}

// Open detects the driver from dsn and opens a backend with it
func Open(ctx context.Context, dsn string) (*Backend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	name := DetectDriver(dsn)
	if name == "" {
		return nil, fmt.Errorf("unsupported database connection scheme")
	}

	return OpenDriver(ctx, name, dsn)
}

// OpenDriver opens a backend with an explicitly named driver
func OpenDriver(ctx context.Context, name, dsn string) (*Backend, error) {
	driver, ok := getDriver(name)
	if !ok {
		return nil, fmt.Errorf("driver %q is not registered (available: %s)", name, strings.Join(Drivers(), ", "))
	}
	return driver.Open(ctx, dsn)
}

// DetectDriver names the driver for a connection string, or "" when the
// scheme is not recognised.
func DetectDriver(dsn string) string {
	normalized := strings.ToLower(strings.TrimSpace(dsn))

	if strings.HasPrefix(normalized, "postgresql://") || strings.HasPrefix(normalized, "postgres://") {
		return "postgres"
	}
	if isLikelyPostgresDSN(normalized) {
		return "postgres"
	}
	if strings.HasPrefix(normalized, "mysql://") || isLikelyMySQLDSN(normalized) {
		return "mysql"
	}

	return ""
}

func isLikelyPostgresDSN(dsn string) bool {
	if !strings.Contains(dsn, "=") || strings.Contains(dsn, "@tcp(") {
		return false
	}

	return strings.Contains(dsn, "host=") ||
		strings.Contains(dsn, "dbname=") ||
		strings.Contains(dsn, "user=")
}

// isLikelyMySQLDSN matches the go-sql-driver form user:pass@tcp(host)/db
func isLikelyMySQLDSN(dsn string) bool {
	return strings.Contains(dsn, "@tcp(") || strings.Contains(dsn, "@unix(")
}
