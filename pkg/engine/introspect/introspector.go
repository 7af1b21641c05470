package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/dexit/ACRUD/pkg/engine"
)

// DatabaseType identifies the database engine
type DatabaseType string

const (
	PostgreSQL DatabaseType = "postgresql"
	MySQL      DatabaseType = "mysql"
	Unknown    DatabaseType = "unknown"
)

// ColumnInfo represents a column
type ColumnInfo struct {
	Name       string
	Type       string // DB-specific type (e.g., "varchar(50)", "integer")
	MaxLength  *int
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	DefaultVal *string
	AutoIncr   bool
	ForeignKey *ForeignKeyInfo
}

// ForeignKeyInfo represents a foreign key constraint
type ForeignKeyInfo struct {
	ReferencedTable  string
	ReferencedColumn string
	ConstraintName   string
}

// TableInfo represents a table structure
type TableInfo struct {
	Name    string
	Columns []ColumnInfo
}

// Introspector is the interface all DB engines must implement
type Introspector interface {
	// Detect confirms this is the right DB type
	Detect(ctx context.Context) (bool, error)

	// ListTables returns all user-defined tables
	ListTables(ctx context.Context) ([]string, error)

	// InspectTable returns detailed structure
	InspectTable(ctx context.Context, tableName string) (*TableInfo, error)

	// GetAllTables returns complete schema
	GetAllTables(ctx context.Context) ([]TableInfo, error)

	// Close closes the connection
	Close() error
}

// NewIntrospector creates the right introspector for a connection string
func NewIntrospector(ctx context.Context, connStr string) (Introspector, error) {
	normalizedConn := strings.TrimSpace(connStr)
	if normalizedConn == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	switch detectFromConnString(normalizedConn) {
	case PostgreSQL:
		return newPostgresIntrospector(ctx, normalizedConn)
	case MySQL:
		return newMySQLIntrospector(ctx, normalizedConn)
	default:
		return nil, fmt.Errorf("unsupported database connection scheme")
	}
}

// detectFromConnString identifies DB type from connection string
func detectFromConnString(connStr string) DatabaseType {
	switch engine.DetectDriver(connStr) {
	case "postgres":
		return PostgreSQL
	case "mysql":
		return MySQL
	default:
		return Unknown
	}
}

// getAllTables inspects every listed table in order
func getAllTables(ctx context.Context, in Introspector) ([]TableInfo, error) {
	tables, err := in.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]TableInfo, 0, len(tables))
	for _, tableName := range tables {
		table, err := in.InspectTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect table %s: %w", tableName, err)
		}
		result = append(result, *table)
	}

	return result, nil
}

// ToTableSchema converts introspected metadata into the engine's schema
func ToTableSchema(info TableInfo) *engine.TableSchema {
	schema := &engine.TableSchema{
		Name:    info.Name,
		Columns: make([]*engine.Column, 0, len(info.Columns)),
	}

	for _, ci := range info.Columns {
		col := &engine.Column{
			Name:       ci.Name,
			Type:       ci.Type,
			Nullable:   ci.Nullable,
			HasDefault: ci.DefaultVal != nil || ci.AutoIncr,
			Primary:    ci.PrimaryKey,
		}
		if ci.MaxLength != nil {
			n := *ci.MaxLength
			col.Length = &n
		}
		if ci.ForeignKey != nil {
			col.ForeignKey = &engine.ForeignKey{
				Table:  ci.ForeignKey.ReferencedTable,
				Column: ci.ForeignKey.ReferencedColumn,
			}
		}
		schema.Columns = append(schema.Columns, col)
	}

	return schema
}

// ToCatalog converts a full introspection result
func ToCatalog(tables []TableInfo) engine.Catalog {
	catalog := make(engine.Catalog, len(tables))
	for _, t := range tables {
		catalog[t.Name] = ToTableSchema(t)
	}
	return catalog
}
