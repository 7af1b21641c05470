package introspect

import (
	"context"
	"fmt"
	"sync"

	"github.com/dexit/ACRUD/pkg/engine"
)

// Provider serves the catalog of a live database. The first call
// introspects every table; later calls reuse the result until Refresh.
type Provider struct {
	inspector Introspector

	mu      sync.Mutex
	catalog engine.Catalog
}

// NewProvider wraps an introspector as an engine.SchemaProvider
func NewProvider(inspector Introspector) *Provider {
	return &Provider{inspector: inspector}
}

// Catalog implements engine.SchemaProvider
func (p *Provider) Catalog(ctx context.Context) (engine.Catalog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.catalog != nil {
		return p.catalog, nil
	}

	tables, err := p.inspector.GetAllTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspection failed: %w", err)
	}

	p.catalog = ToCatalog(tables)
	return p.catalog, nil
}

// Refresh drops the cached catalog so the next call introspects again
func (p *Provider) Refresh() {
	p.mu.Lock()
	p.catalog = nil
	p.mu.Unlock()
}

// Close closes the underlying introspector
func (p *Provider) Close() error {
	return p.inspector.Close()
}
