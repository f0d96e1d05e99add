package lorm

import (
	"context"
	"fmt"

	"github.com/syssam/lorm/dialect/sql"
	sqlschema "github.com/syssam/lorm/dialect/sql/schema"
	"github.com/syssam/lorm/schema"
)

// Table runs the generated statements of the record type T against its
// bound table. A Table is obtained from Register.
type Table[T any] struct {
	desc   *schema.Descriptor
	client *Client
	s      session
}

// Descriptor returns the binding of T.
func (t *Table[T]) Descriptor() *schema.Descriptor {
	return t.desc
}

// Name returns the bound table name.
func (t *Table[T]) Name() string {
	return t.desc.Table
}

// WithTx returns a copy of the table running its statements in tx.
func (t *Table[T]) WithTx(tx *Tx) *Table[T] {
	return &Table[T]{desc: t.desc, client: t.client, s: tx.session()}
}

// CheckBinding compares the binding of T with the columns the store
// reports for its table.
func (t *Table[T]) CheckBinding(ctx context.Context, opts ...sqlschema.ValidateOption) (*sqlschema.ValidationResult, error) {
	columns, err := sql.Columns(ctx, t.client.driver, t.desc.Table)
	if err != nil {
		return nil, err
	}
	return sqlschema.ValidateBinding(t.desc, columns, opts...), nil
}

func (t *Table[T]) gen() generator {
	return generator{desc: t.desc, dialect: t.s.dialect}
}

// Insert inserts the record. Null fields are left out of the statement so
// that the store applies its defaults.
func (t *Table[T]) Insert(ctx context.Context, entity T) error {
	stmt, err := t.gen().Insert(entity)
	if err != nil {
		return err
	}
	_, err = t.s.exec(ctx, stmt)
	return err
}

// BulkInsert inserts all records with a single statement. Every record is
// validated and must carry the same non-null fields as the first one,
// otherwise nothing is sent to the store. An empty batch is a no-op.
func (t *Table[T]) BulkInsert(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return nil
	}
	rows := make([]any, len(entities))
	for i := range entities {
		rows[i] = entities[i]
	}
	stmt, err := t.gen().BulkInsert(rows)
	if err != nil {
		return err
	}
	_, err = t.s.exec(ctx, stmt)
	return err
}

// Update writes every field of the record, nulls included, to the row
// holding its primary key. It returns the number of affected rows.
func (t *Table[T]) Update(ctx context.Context, entity T) (int64, error) {
	stmt, err := t.gen().Update(entity)
	if err != nil {
		return 0, err
	}
	return t.affected(ctx, stmt)
}

// Delete deletes the row holding the primary key of the record. It returns
// the number of affected rows.
func (t *Table[T]) Delete(ctx context.Context, entity T) (int64, error) {
	stmt, err := t.gen().Delete(entity)
	if err != nil {
		return 0, err
	}
	return t.affected(ctx, stmt)
}

// Fetch returns the records equal to every condition. Conditions are given
// as a struct or a map[string]any keyed by field or column names:
//
//	users.Fetch(ctx, struct{ Role_Id int }{2})
//	users.Fetch(ctx, map[string]any{"isReal": true})
//
// A nil or empty condition set returns every record.
func (t *Table[T]) Fetch(ctx context.Context, conditions any) ([]T, error) {
	stmt, err := t.gen().Fetch(conditions)
	if err != nil {
		return nil, err
	}
	return t.all(ctx, stmt)
}

// Count returns the number of rows of the table.
func (t *Table[T]) Count(ctx context.Context) (int64, error) {
	rows, err := t.s.query(ctx, t.gen().Count())
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	return scanScalar(rows)
}

// GetLatest returns the record with the greatest primary key.
func (t *Table[T]) GetLatest(ctx context.Context) (T, error) {
	return t.first(ctx, t.gen().Latest(), nil)
}

// GetPage returns the records of the 1-based page of the given size.
func (t *Table[T]) GetPage(ctx context.Context, page, size int) ([]T, error) {
	stmt, err := t.gen().Page(page, size)
	if err != nil {
		return nil, err
	}
	return t.all(ctx, stmt)
}

// GetElementByID returns the record holding the primary key id.
func (t *Table[T]) GetElementByID(ctx context.Context, id any) (T, error) {
	return t.first(ctx, t.gen().ByID(id), id)
}

// ExecuteQuery runs a raw query with named "@name" placeholders and reads
// the result into records of T.
func (t *Table[T]) ExecuteQuery(ctx context.Context, query string, args ...sql.NamedArg) ([]T, error) {
	return t.all(ctx, sql.Statement{Text: query, Args: args})
}

// Query returns a new fluent query over the table.
func (t *Table[T]) Query() *Query[T] {
	return &Query[T]{table: t, frag: sql.NewFragment()}
}

func (t *Table[T]) all(ctx context.Context, stmt sql.Statement) ([]T, error) {
	rows, err := t.s.query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll[T](rows, t.desc)
}

func (t *Table[T]) first(ctx context.Context, stmt sql.Statement, id any) (T, error) {
	var zero T
	records, err := t.all(ctx, stmt)
	if err != nil {
		return zero, err
	}
	if len(records) == 0 {
		if id != nil {
			return zero, NewNotFoundErrorWithID(t.desc.Table, id)
		}
		return zero, NewNotFoundError(t.desc.Table)
	}
	return records[0], nil
}

func (t *Table[T]) affected(ctx context.Context, stmt sql.Statement) (int64, error) {
	res, err := t.s.exec(ctx, stmt)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("lorm: reading affected rows: %w", err)
	}
	return n, nil
}
