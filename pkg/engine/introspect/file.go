package introspect

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dexit/ACRUD/pkg/engine"
	"gopkg.in/yaml.v3"
)

// schemaDocument is the on-disk YAML layout of a catalog
type schemaDocument struct {
	Tables []*engine.TableSchema `yaml:"tables"`
}

// FileProvider serves a catalog read from a YAML schema file
type FileProvider struct {
	path    string
	catalog engine.Catalog
}

// NewFileProvider reads and parses path
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	catalog, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &FileProvider{path: path, catalog: catalog}, nil
}

// Catalog implements engine.SchemaProvider
func (p *FileProvider) Catalog(ctx context.Context) (engine.Catalog, error) {
	return p.catalog, nil
}

// Path returns the file the catalog was read from
func (p *FileProvider) Path() string {
	return p.path
}

// ParseYAML decodes a catalog document
func ParseYAML(data []byte) (engine.Catalog, error) {
	var doc schemaDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	catalog := make(engine.Catalog, len(doc.Tables))
	for i, table := range doc.Tables {
		if table == nil || table.Name == "" {
			return nil, fmt.Errorf("table #%d has no name", i+1)
		}
		if _, dup := catalog[table.Name]; dup {
			return nil, fmt.Errorf("table %s is declared twice", table.Name)
		}
		for j, col := range table.Columns {
			if col == nil || col.Name == "" {
				return nil, fmt.Errorf("table %s: column #%d has no name", table.Name, j+1)
			}
		}
		catalog[table.Name] = table
	}

	return catalog, nil
}

// WriteYAML encodes a catalog with tables sorted by name
func WriteYAML(w io.Writer, catalog engine.Catalog) error {
	doc := schemaDocument{Tables: make([]*engine.TableSchema, 0, len(catalog))}
	for _, name := range catalog.TableNames() {
		doc.Tables = append(doc.Tables, catalog[name])
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}
