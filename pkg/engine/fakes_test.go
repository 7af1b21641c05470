package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func intPtr(n int) *int { return &n }

// usersCatalog is the users/teams schema shared by the engine tests
func usersCatalog() Catalog {
	return Catalog{
		"users": {
			Name: "users",
			Columns: []*Column{
				{Name: "id", Type: "integer", Primary: true, HasDefault: true},
				{Name: "name", Type: "varchar(50)"},
				{Name: "email", Type: "character varying", Length: intPtr(100)},
				{Name: "age", Type: "integer", Nullable: true},
				{Name: "team_id", Type: "integer", Nullable: true, ForeignKey: &ForeignKey{Table: "teams", Column: "id"}},
				{Name: "is_admin", Type: "boolean", HasDefault: true},
				{Name: "created_at", Type: "timestamp", Nullable: true},
				{Name: "updated_at", Type: "timestamp", Nullable: true},
			},
		},
		"teams": {
			Name: "teams",
			Columns: []*Column{
				{Name: "id", Type: "integer", Primary: true, HasDefault: true},
				{Name: "title", Type: "text"},
			},
		},
		"tags": {
			Name: "tags",
			Columns: []*Column{
				{Name: "slug", Type: "varchar(20)", Primary: true},
				{Name: "label", Type: "varchar(20)"},
			},
		},
	}
}

type insertCall struct {
	Table string
	Data  Record
}

type updateCall struct {
	Table string
	Data  Record
	ID    Value
}

// fakeDB is an in-memory Executor. rows holds the values that exist per
// "table.column".
type fakeDB struct {
	rows map[string]map[string]bool

	queries  []string
	queryErr error

	inserts   []insertCall
	insertID  Value
	insertErr error

	updates   []updateCall
	updateOK  bool
	updateErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		rows:     make(map[string]map[string]bool),
		insertID: Integer(42),
		updateOK: true,
	}
}

func (f *fakeDB) addRow(table, column string, value any) *fakeDB {
	key := table + "." + column
	if f.rows[key] == nil {
		f.rows[key] = make(map[string]bool)
	}
	f.rows[key][fmt.Sprint(value)] = true
	return f
}

func (f *fakeDB) QueryScalar(ctx context.Context, query string, args ...any) (any, bool, error) {
	f.queries = append(f.queries, query)
	if f.queryErr != nil {
		return nil, false, f.queryErr
	}

	// SELECT 1 FROM <table> WHERE <column> = ? LIMIT 1
	parts := strings.Fields(query)
	if len(parts) < 6 || len(args) != 1 {
		return nil, false, fmt.Errorf("unexpected query %q", query)
	}
	key := parts[3] + "." + parts[5]
	if f.rows[key][fmt.Sprint(args[0])] {
		return int64(1), true, nil
	}
	return nil, false, nil
}

func (f *fakeDB) Insert(ctx context.Context, table string, data Record) (Value, error) {
	f.inserts = append(f.inserts, insertCall{Table: table, Data: data})
	if f.insertErr != nil {
		return Null(), f.insertErr
	}
	return f.insertID, nil
}

func (f *fakeDB) Update(ctx context.Context, table string, data Record, id Value) (bool, error) {
	f.updates = append(f.updates, updateCall{Table: table, Data: data, ID: id})
	if f.updateErr != nil {
		return false, f.updateErr
	}
	return f.updateOK, nil
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
}

const fixedStamp = "2024-03-09 14:05:07"
