package introspect

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgQuerier is satisfied by *pgx.Conn and *pgxpool.Pool
type PgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresIntrospector struct {
	db    PgQuerier
	close func() error
}

func newPostgresIntrospector(ctx context.Context, connStr string) (Introspector, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &postgresIntrospector{
		db:    conn,
		close: func() error { return conn.Close(context.Background()) },
	}, nil
}

// NewPostgres introspects through an existing connection or pool. Close
// is a no-op; the caller owns db.
func NewPostgres(db PgQuerier) Introspector {
	return &postgresIntrospector{db: db}
}

func (pi *postgresIntrospector) Detect(ctx context.Context) (bool, error) {
	var version string
	err := pi.db.QueryRow(ctx, "SELECT version()").Scan(&version)
	return err == nil, err
}

func (pi *postgresIntrospector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := pi.db.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (pi *postgresIntrospector) InspectTable(ctx context.Context, tableName string) (*TableInfo, error) {
	rows, err := pi.db.Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.character_maximum_length::int,
			c.is_nullable,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.table_schema = c.table_schema
					AND tc.table_name = c.table_name
					AND tc.constraint_type = 'PRIMARY KEY'
					AND kcu.column_name = c.column_name
			) AS is_primary,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.table_schema = c.table_schema
					AND tc.table_name = c.table_name
					AND tc.constraint_type = 'UNIQUE'
					AND kcu.column_name = c.column_name
			) AS is_unique,
			c.column_default,
			c.is_identity = 'YES' AS is_identity
		FROM information_schema.columns c
		WHERE c.table_schema = 'public'
			AND c.table_name = $1
		ORDER BY c.ordinal_position
	`, tableName)
	if err != nil {
		return nil, err
	}

	table := &TableInfo{
		Name:    tableName,
		Columns: []ColumnInfo{},
	}

	for rows.Next() {
		var col ColumnInfo
		var nullable string
		var maxLen *int32
		var isPrimary, isUnique, isIdentity bool

		if err := rows.Scan(
			&col.Name,
			&col.Type,
			&maxLen,
			&nullable,
			&isPrimary,
			&isUnique,
			&col.DefaultVal,
			&isIdentity,
		); err != nil {
			rows.Close()
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.PrimaryKey = isPrimary
		col.Unique = isUnique
		col.AutoIncr = isIdentity
		if maxLen != nil {
			n := int(*maxLen)
			col.MaxLength = &n
		}

		table.Columns = append(table.Columns, col)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", tableName)
	}

	fks, err := pi.foreignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys of %s: %w", tableName, err)
	}
	for i := range table.Columns {
		if fk, ok := fks[table.Columns[i].Name]; ok {
			table.Columns[i].ForeignKey = fk
		}
	}

	return table, nil
}

// foreignKeys maps column name to its reference for one table
func (pi *postgresIntrospector) foreignKeys(ctx context.Context, tableName string) (map[string]*ForeignKeyInfo, error) {
	rows, err := pi.db.Query(ctx, `
		SELECT kcu.column_name, ccu.table_name, ccu.column_name, tc.constraint_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1
	`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := make(map[string]*ForeignKeyInfo)
	for rows.Next() {
		var column string
		fk := &ForeignKeyInfo{}
		if err := rows.Scan(&column, &fk.ReferencedTable, &fk.ReferencedColumn, &fk.ConstraintName); err != nil {
			return nil, err
		}
		if _, seen := fks[column]; !seen {
			fks[column] = fk
		}
	}

	return fks, rows.Err()
}

func (pi *postgresIntrospector) GetAllTables(ctx context.Context) ([]TableInfo, error) {
	return getAllTables(ctx, pi)
}

func (pi *postgresIntrospector) Close() error {
	if pi.close == nil {
		return nil
	}
	return pi.close()
}
