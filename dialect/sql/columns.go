package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/lorm/dialect"
)

// Column describes a column of a store table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	// Default reports whether the store fills the column when an insert
	// omits it, through a default value or an auto-increment key.
	Default bool
	// Size is the maximum character length of text columns, 0 if unbounded
	// or unknown.
	Size int64
}

var columnsQuery = map[string]string{
	dialect.MySQL: "SELECT column_name, data_type, is_nullable = 'YES', column_default IS NOT NULL OR extra LIKE '%auto_increment%', character_maximum_length " +
		"FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = @table ORDER BY ordinal_position",
	dialect.Postgres: "SELECT column_name, data_type, is_nullable = 'YES', column_default IS NOT NULL, character_maximum_length " +
		"FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = @table ORDER BY ordinal_position",
	dialect.SQLite: `SELECT name, type, "notnull" = 0, dflt_value IS NOT NULL OR pk > 0, NULL FROM pragma_table_info(@table) ORDER BY cid`,
}

// Columns returns the columns of table in declaration order.
func Columns(ctx context.Context, drv dialect.Driver, table string) ([]Column, error) {
	query, ok := columnsQuery[drv.Dialect()]
	if !ok {
		return nil, fmt.Errorf("dialect/sql: unsupported dialect %q", drv.Dialect())
	}
	rows, err := drv.Query(ctx, query, []NamedArg{Named("table", table)})
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: list columns of %s: %w", table, err)
	}
	defer rows.Close()
	var columns []Column
	for rows.Next() {
		var (
			c    Column
			size sql.NullInt64
		)
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable, &c.Default, &size); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan column of %s: %w", table, err)
		}
		c.Size = size.Int64
		if !size.Valid {
			c.Size = typeSize(c.Type)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: list columns of %s: %w", table, err)
	}
	return columns, nil
}

// typeSize extracts n from declared types such as "VARCHAR(n)".
func typeSize(typ string) int64 {
	open := strings.IndexByte(typ, '(')
	end := strings.IndexByte(typ, ')')
	if open < 0 || end < open {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(typ[open+1:end]), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
