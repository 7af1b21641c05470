package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ColumnKind is the closed classification of a column's declared type
type ColumnKind int

const (
	KindOther ColumnKind = iota
	KindInteger
	KindText
	KindBoolean
	KindUUID
	KindTimestamp
	KindDecimal
)

var kindNames = map[ColumnKind]string{
	KindOther:     "other",
	KindInteger:   "integer",
	KindText:      "text",
	KindBoolean:   "boolean",
	KindUUID:      "uuid",
	KindTimestamp: "timestamp",
	KindDecimal:   "decimal",
}

func (k ColumnKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// ClassifyType maps a free-form database type string to a ColumnKind.
// Matching is by substring, so "bigint", "tinyint(1)" and "integer" are all
// integers, and "varchar(255)" or "longtext" are text. "bool" is checked
// before "int" so that MySQL's boolean aliases stay booleans.
func ClassifyType(dbType string) ColumnKind {
	t := strings.ToLower(strings.TrimSpace(dbType))

	switch {
	case strings.Contains(t, "bool"):
		return KindBoolean
	case strings.Contains(t, "int"):
		return KindInteger
	case strings.Contains(t, "uuid"):
		return KindUUID
	case strings.Contains(t, "text"), strings.Contains(t, "char"):
		return KindText
	case strings.Contains(t, "time"), strings.Contains(t, "date"):
		return KindTimestamp
	case strings.Contains(t, "numeric"), strings.Contains(t, "decimal"),
		strings.Contains(t, "float"), strings.Contains(t, "double"),
		strings.Contains(t, "real"):
		return KindDecimal
	default:
		return KindOther
	}
}

var typeLengthPattern = regexp.MustCompile(`\(\s*(\d+)\s*\)`)

// ParseTypeLength extracts "50" from "varchar(50)". ok is false when the
// type carries no single length argument.
func ParseTypeLength(dbType string) (int, bool) {
	m := typeLengthPattern.FindStringSubmatch(dbType)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ForeignKey points a column at the referenced table and column
type ForeignKey struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// Column describes one column of a table as reported by introspection
type Column struct {
	Name       string      `json:"name" yaml:"name"`
	Type       string      `json:"type" yaml:"type"`
	Length     *int        `json:"length,omitempty" yaml:"length,omitempty"`
	Nullable   bool        `json:"nullable" yaml:"nullable"`
	HasDefault bool        `json:"has_default" yaml:"has_default"`
	Primary    bool        `json:"primary" yaml:"primary"`
	ForeignKey *ForeignKey `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
}

// Kind classifies the column's declared type
func (c *Column) Kind() ColumnKind {
	return ClassifyType(c.Type)
}

// MaxLength returns the declared length, falling back to the length
// embedded in the type string.
func (c *Column) MaxLength() (int, bool) {
	if c.Length != nil {
		return *c.Length, true
	}
	return ParseTypeLength(c.Type)
}

// TableSchema is the ordered column list of a single table
type TableSchema struct {
	Name    string    `json:"name" yaml:"name"`
	Columns []*Column `json:"columns" yaml:"columns"`
}

// Column returns the named column, or nil
func (t *TableSchema) Column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// HasColumn reports whether the table declares the named column
func (t *TableSchema) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// PrimaryKey returns the first primary column in declared order, or nil
func (t *TableSchema) PrimaryKey() *Column {
	for _, col := range t.Columns {
		if col.Primary {
			return col
		}
	}
	return nil
}

// ColumnNames lists the column names in declared order
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Catalog maps table names to their schema
type Catalog map[string]*TableSchema

// Table returns the schema for a table, or nil
func (c Catalog) Table(name string) *TableSchema {
	if c == nil {
		return nil
	}
	return c[name]
}

// TableNames returns the catalog's tables sorted by name
func (c Catalog) TableNames() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToJSON serializes the catalog for inspection
func (c Catalog) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize catalog: %w", err)
	}
	return string(data), nil
}

// SchemaProvider supplies the table catalog. Implementations may cache.
type SchemaProvider interface {
	Catalog(ctx context.Context) (Catalog, error)
}

// StaticProvider serves a fixed catalog
type StaticProvider struct {
	catalog Catalog
}

// NewStaticProvider wraps an in-memory catalog
func NewStaticProvider(catalog Catalog) *StaticProvider {
	return &StaticProvider{catalog: catalog}
}

// Catalog implements SchemaProvider
func (p *StaticProvider) Catalog(ctx context.Context) (Catalog, error) {
	return p.catalog, nil
}

// lookupTable fetches a single table from a provider
func lookupTable(ctx context.Context, provider SchemaProvider, table string) (*TableSchema, error) {
	if provider == nil {
		return nil, &UnknownTableError{Table: table}
	}
	catalog, err := provider.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	schema := catalog.Table(table)
	if schema == nil {
		return nil, &UnknownTableError{Table: table, Available: catalog.TableNames()}
	}
	return schema, nil
}
