package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type mysqlIntrospector struct {
	db    *sql.DB
	owned bool
}

func newMySQLIntrospector(ctx context.Context, connStr string) (Introspector, error) {
	dsn, err := MySQLDSN(connStr)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	return &mysqlIntrospector{db: db, owned: true}, nil
}

// NewMySQL introspects through an existing pool. Close is a no-op; the
// caller owns db.
func NewMySQL(db *sql.DB) Introspector {
	return &mysqlIntrospector{db: db}
}

// MySQLDSN turns a mysql:// URL into the driver's DSN format. Strings
// already in driver format are validated and returned unchanged.
func MySQLDSN(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)
	if !strings.HasPrefix(strings.ToLower(connStr), "mysql://") {
		if _, err := mysql.ParseDSN(connStr); err != nil {
			return "", fmt.Errorf("invalid MySQL DSN: %w", err)
		}
		return connStr, nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL URL: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Hostname() + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "parseTime" {
			cfg.ParseTime = values[0] == "true"
			continue
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[key] = values[0]
	}

	return cfg.FormatDSN(), nil
}

func (mi *mysqlIntrospector) Detect(ctx context.Context) (bool, error) {
	var version string
	err := mi.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return err == nil, err
}

func (mi *mysqlIntrospector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := mi.db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (mi *mysqlIntrospector) InspectTable(ctx context.Context, tableName string) (*TableInfo, error) {
	rows, err := mi.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, CHARACTER_MAXIMUM_LENGTH, IS_NULLABLE,
			COLUMN_DEFAULT, COLUMN_KEY, EXTRA
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}

	table := &TableInfo{
		Name:    tableName,
		Columns: []ColumnInfo{},
	}

	for rows.Next() {
		var col ColumnInfo
		var isNullable, columnKey, extra string
		var maxLen sql.NullInt64
		var colDefault sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &maxLen, &isNullable, &colDefault, &columnKey, &extra); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Nullable = isNullable == "YES"
		col.PrimaryKey = columnKey == "PRI"
		col.Unique = columnKey == "UNI"
		col.AutoIncr = strings.Contains(strings.ToLower(extra), "auto_increment")
		if colDefault.Valid {
			def := colDefault.String
			col.DefaultVal = &def
		}
		if maxLen.Valid {
			n := int(maxLen.Int64)
			col.MaxLength = &n
		}

		table.Columns = append(table.Columns, col)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", tableName)
	}

	fks, err := mi.foreignKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	for i := range table.Columns {
		if fk, ok := fks[table.Columns[i].Name]; ok {
			table.Columns[i].ForeignKey = fk
		}
	}

	return table, nil
}

func (mi *mysqlIntrospector) foreignKeys(ctx context.Context, tableName string) (map[string]*ForeignKeyInfo, error) {
	rows, err := mi.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME, CONSTRAINT_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
			AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	fks := make(map[string]*ForeignKeyInfo)
	for rows.Next() {
		var column string
		fk := &ForeignKeyInfo{}
		if err := rows.Scan(&column, &fk.ReferencedTable, &fk.ReferencedColumn, &fk.ConstraintName); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if _, seen := fks[column]; !seen {
			fks[column] = fk
		}
	}

	return fks, rows.Err()
}

func (mi *mysqlIntrospector) GetAllTables(ctx context.Context) ([]TableInfo, error) {
	return getAllTables(ctx, mi)
}

func (mi *mysqlIntrospector) Close() error {
	if !mi.owned {
		return nil
	}
	return mi.db.Close()
}
