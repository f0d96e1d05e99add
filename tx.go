package lorm

import (
	"context"

	"github.com/syssam/lorm/dialect"
	"github.com/syssam/lorm/dialect/sql"
)

// Tx is a transaction started by Client.Tx. It pins one connection of the
// store until Commit or Rollback.
type Tx struct {
	tx     dialect.Tx
	client *Client
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return tx.tx.Commit()
}

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}

// Client returns the client that started the transaction.
func (tx *Tx) Client() *Client {
	return tx.client
}

// Exec runs a raw statement with named "@name" placeholders within the
// transaction.
func (tx *Tx) Exec(ctx context.Context, query string, args ...sql.NamedArg) (sql.Result, error) {
	return tx.session().exec(ctx, sql.Statement{Text: query, Args: args})
}

func (tx *Tx) session() session {
	return session{conn: tx.tx, dialect: tx.client.Dialect()}
}

// session runs generated statements on a driver or a transaction.
type session struct {
	conn    dialect.ExecQuerier
	dialect string
}

// exec runs a statement that returns no rows.
func (s session) exec(ctx context.Context, stmt sql.Statement) (sql.Result, error) {
	res, err := s.conn.Exec(ctx, stmt.Text, stmt.Args)
	if err != nil {
		return nil, &StatementExecutionError{Query: stmt.Text, Err: err}
	}
	return res, nil
}

// query runs a statement returning rows. The caller must close them.
func (s session) query(ctx context.Context, stmt sql.Statement) (sql.Rows, error) {
	rows, err := s.conn.Query(ctx, stmt.Text, stmt.Args)
	if err != nil {
		return nil, &StatementExecutionError{Query: stmt.Text, Err: err}
	}
	return rows, nil
}
