package sql

import (
	"context"
	"log/slog"

	"github.com/syssam/lorm/dialect"
)

// DebugDriver wraps a Driver and logs every statement at debug level, with
// its named text and bindings.
type DebugDriver struct {
	dialect.Driver
	logger *slog.Logger
}

// NewDebugDriver wraps drv. A nil logger means slog.Default().
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, logger: logger}
}

// Exec logs and runs a statement.
func (d *DebugDriver) Exec(ctx context.Context, query string, args []NamedArg) (Result, error) {
	logStatement(ctx, d.logger, "exec", query, args)
	return d.Driver.Exec(ctx, query, args)
}

// Query logs and runs a statement.
func (d *DebugDriver) Query(ctx context.Context, query string, args []NamedArg) (Rows, error) {
	logStatement(ctx, d.logger, "query", query, args)
	return d.Driver.Query(ctx, query, args)
}

// Tx starts a transaction whose statements are logged with its id.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	logger := d.logger
	if id := TxID(tx); id != "" {
		logger = logger.With("tx", id)
	}
	logger.DebugContext(ctx, "begin transaction")
	return &DebugTx{Tx: tx, logger: logger}, nil
}

// DebugTx is a transaction of a DebugDriver.
type DebugTx struct {
	dialect.Tx
	logger *slog.Logger
}

// ID returns the id of the wrapped transaction.
func (tx *DebugTx) ID() string {
	return TxID(tx.Tx)
}

// Exec logs and runs a statement within the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string, args []NamedArg) (Result, error) {
	logStatement(ctx, tx.logger, "exec", query, args)
	return tx.Tx.Exec(ctx, query, args)
}

// Query logs and runs a statement within the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string, args []NamedArg) (Rows, error) {
	logStatement(ctx, tx.logger, "query", query, args)
	return tx.Tx.Query(ctx, query, args)
}

// Commit logs and commits the transaction.
func (tx *DebugTx) Commit() error {
	tx.logger.Debug("commit transaction")
	return tx.Tx.Commit()
}

// Rollback logs and rolls back the transaction.
func (tx *DebugTx) Rollback() error {
	tx.logger.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

func logStatement(ctx context.Context, logger *slog.Logger, msg, query string, args []NamedArg) {
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	logger.LogAttrs(ctx, slog.LevelDebug, msg, slog.String("statement", query), argsAttr(args))
}

// argsAttr renders bindings as a group keyed by placeholder name, such as
// args.Name=Ada args.Role_Id=2.
func argsAttr(args []NamedArg) slog.Attr {
	attrs := make([]any, 0, len(args))
	for _, a := range args {
		attrs = append(attrs, slog.Any(a.Name, a.Value))
	}
	return slog.Group("args", attrs...)
}

var (
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
