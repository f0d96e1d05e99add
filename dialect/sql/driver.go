package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/syssam/lorm/dialect"
)

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NamedArg is an alias to sql.NamedArg.
	NamedArg = sql.NamedArg
	// TxOptions is an alias to sql.TxOptions.
	TxOptions = sql.TxOptions
	// Rows is an alias to dialect.Rows.
	Rows = dialect.Rows
)

// Named is an alias to sql.Named.
func Named(name string, value any) NamedArg {
	return sql.Named(name, value)
}

// ExecQuerier is the part of *sql.DB and *sql.Tx a Conn runs statements on.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn runs named statements on a pool or a transaction of one dialect.
// Placeholders are rebound right before the statement is handed to
// database/sql.
type Conn struct {
	ExecQuerier
	dialect string
}

// Dialect returns the dialect the statements are rebound for.
func (c Conn) Dialect() string {
	return c.dialect
}

// Exec rebinds and runs a statement that returns no rows.
func (c Conn) Exec(ctx context.Context, query string, args []NamedArg) (Result, error) {
	text, argv, err := Statement{Text: query, Args: args}.Rebind(c.dialect)
	if err != nil {
		return nil, err
	}
	res, err := c.ExecContext(ctx, text, argv...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return res, nil
}

// Query rebinds and runs a statement that returns rows.
func (c Conn) Query(ctx context.Context, query string, args []NamedArg) (Rows, error) {
	text, argv, err := Statement{Text: query, Args: args}.Rebind(c.dialect)
	if err != nil {
		return nil, err
	}
	rows, err := c.QueryContext(ctx, text, argv...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	return rows, nil
}

// Driver is the dialect.Driver of a *sql.DB.
type Driver struct {
	Conn
	db *sql.DB
}

// Open opens a pool with database/sql. The driver registered with
// database/sql must carry the dialect name.
func Open(name, source string) (*Driver, error) {
	db, err := sql.Open(name, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(name, db), nil
}

// OpenDB returns a Driver running statements of the given dialect on db.
func OpenDB(name string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{ExecQuerier: db, dialect: name}, db: db}
}

// DB returns the underlying pool.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// Tx starts a transaction with default options.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction. It pins one connection of the pool until
// it is committed or rolled back.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{Conn: Conn{ExecQuerier: tx, dialect: d.dialect}, tx: tx, id: uuid.NewString()}, nil
}

// Close closes the pool.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Tx is a transaction started by a Driver.
type Tx struct {
	Conn
	tx *sql.Tx
	id string
}

// ID returns the random id of the transaction, used to correlate its
// statements in logs.
func (tx *Tx) ID() string {
	return tx.id
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return tx.tx.Commit()
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}

// TxID returns the id of a transaction started by a Driver, looking through
// the StatsDriver and DebugDriver wrappers. It is empty for other
// transactions.
func TxID(tx dialect.Tx) string {
	if t, ok := tx.(interface{ ID() string }); ok {
		return t.ID()
	}
	return ""
}

var (
	_ dialect.Driver = (*Driver)(nil)
	_ dialect.Tx     = (*Tx)(nil)
)
