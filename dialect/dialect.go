package dialect

import (
	"context"
	"database/sql"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier runs statements written with named "@name" placeholders.
// Implementations rewrite the placeholders into the positional style of
// their dialect on the way to the store, so wrappers see the named text
// and its bindings.
type ExecQuerier interface {
	// Exec runs a statement that returns no rows, such as INSERT or UPDATE.
	Exec(ctx context.Context, query string, args []sql.NamedArg) (sql.Result, error)
	// Query runs a statement that returns rows. The caller closes them.
	Query(ctx context.Context, query string, args []sql.NamedArg) (Rows, error)
}

// Rows is a cursor over the result of Query. *sql.Rows implements it.
type Rows interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// Driver is the interface that wraps all necessary operations for the mapping engine.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Supported reports whether name is one of the known dialects.
func Supported(name string) bool {
	switch name {
	case MySQL, SQLite, Postgres:
		return true
	}
	return false
}
