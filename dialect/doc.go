// Package dialect provides the database dialect abstraction for lorm.
//
// This package defines the interfaces used to execute generated statements,
// allowing lorm to run against multiple relational backends.
//
// # Supported Dialects
//
// The following dialects are supported:
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
// Statements reach a driver as text with named "@name" placeholders and the
// arguments bound to them. The driver rewrites them for its dialect:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args []sql.NamedArg) (sql.Result, error)
//	    Query(ctx context.Context, query string, args []sql.NamedArg) (Rows, error)
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// The Tx interface carries the same Exec and Query methods, bound to a
// single connection until Commit or Rollback:
//
//	type Tx interface {
//	    Exec(ctx context.Context, query string, args []sql.NamedArg) (sql.Result, error)
//	    Query(ctx context.Context, query string, args []sql.NamedArg) (Rows, error)
//	    Commit() error
//	    Rollback() error
//	}
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver, statements, placeholder rebinding
//     and the query fragment accumulator
//   - dialect/sql/schema: checks record bindings against table columns
//   - dialect/sql/sqlerr: classification of store errors
package dialect
