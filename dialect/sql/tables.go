package sql

import (
	"context"
	"fmt"

	"github.com/syssam/lorm/dialect"
)

// tablesQuery holds the statement listing the user tables of each dialect.
var tablesQuery = map[string]string{
	dialect.MySQL:    "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name",
	dialect.Postgres: "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name",
	dialect.SQLite:   "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
}

// Tables returns the names of the tables visible to the driver, in the
// order reported by the store.
func Tables(ctx context.Context, drv dialect.Driver) ([]string, error) {
	query, ok := tablesQuery[drv.Dialect()]
	if !ok {
		return nil, fmt.Errorf("dialect/sql: unsupported dialect %q", drv.Dialect())
	}
	rows, err := drv.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: list tables: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: list tables: %w", err)
	}
	return names, nil
}
