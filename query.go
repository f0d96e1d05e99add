package lorm

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/lorm/dialect/sql"
)

// Query is a fluent query over a table. It accumulates a clause through
// its builder methods and runs it with exactly one terminal call, Select
// or Delete. Any later terminal call returns ErrQueryConsumed.
//
// Where, And, Or, OrderBy, GroupBy, Having and the joins append their
// argument verbatim. Pass only trusted column names and expressions to
// them; values go through Equals, Like, In and the other comparisons,
// which bind them as parameters.
//
//	admins, err := users.Query().
//		Where("Role_Id").Equals(1).
//		AndNot("surname").Equals("Test1").
//		Select(ctx)
type Query[T any] struct {
	table    *Table[T]
	frag     *sql.Fragment
	distinct bool
	consumed bool
}

// Where appends "WHERE expr".
func (q *Query[T]) Where(expr string) *Query[T] { q.frag.Where(expr); return q }

// WhereNot appends "WHERE NOT expr".
func (q *Query[T]) WhereNot(expr string) *Query[T] { q.frag.WhereNot(expr); return q }

// And appends "AND expr".
func (q *Query[T]) And(expr string) *Query[T] { q.frag.And(expr); return q }

// AndNot appends "AND NOT expr".
func (q *Query[T]) AndNot(expr string) *Query[T] { q.frag.AndNot(expr); return q }

// Or appends "OR expr".
func (q *Query[T]) Or(expr string) *Query[T] { q.frag.Or(expr); return q }

// OrNot appends "OR NOT expr".
func (q *Query[T]) OrNot(expr string) *Query[T] { q.frag.OrNot(expr); return q }

// OrderBy appends "ORDER BY expr".
func (q *Query[T]) OrderBy(expr string) *Query[T] { q.frag.OrderBy(expr); return q }

// GroupBy appends "GROUP BY expr".
func (q *Query[T]) GroupBy(expr string) *Query[T] { q.frag.GroupBy(expr); return q }

// Having appends "HAVING expr".
func (q *Query[T]) Having(expr string) *Query[T] { q.frag.Having(expr); return q }

// Join appends "JOIN table".
func (q *Query[T]) Join(table string) *Query[T] { q.frag.Join(table); return q }

// InnerJoin appends "INNER JOIN table".
func (q *Query[T]) InnerJoin(table string) *Query[T] { q.frag.InnerJoin(table); return q }

// LeftJoin appends "LEFT JOIN table".
func (q *Query[T]) LeftJoin(table string) *Query[T] { q.frag.LeftJoin(table); return q }

// RightJoin appends "RIGHT JOIN table".
func (q *Query[T]) RightJoin(table string) *Query[T] { q.frag.RightJoin(table); return q }

// FullJoin appends "FULL JOIN table".
func (q *Query[T]) FullJoin(table string) *Query[T] { q.frag.FullJoin(table); return q }

// CrossJoin appends "CROSS JOIN table".
func (q *Query[T]) CrossJoin(table string) *Query[T] { q.frag.CrossJoin(table); return q }

// IsNull appends "IS NULL".
func (q *Query[T]) IsNull() *Query[T] { q.frag.IsNull(); return q }

// IsNotNull appends "IS NOT NULL".
func (q *Query[T]) IsNotNull() *Query[T] { q.frag.IsNotNull(); return q }

// Equals appends "= @ElmN" bound to v.
func (q *Query[T]) Equals(v any) *Query[T] { q.frag.Equals(v); return q }

// GreaterThan appends "> @ElmN" bound to v.
func (q *Query[T]) GreaterThan(v any) *Query[T] { q.frag.GreaterThan(v); return q }

// LessThan appends "< @ElmN" bound to v.
func (q *Query[T]) LessThan(v any) *Query[T] { q.frag.LessThan(v); return q }

// GreaterThanOrEqual appends ">= @ElmN" bound to v.
func (q *Query[T]) GreaterThanOrEqual(v any) *Query[T] { q.frag.GreaterThanOrEqual(v); return q }

// LessThanOrEqual appends "<= @ElmN" bound to v.
func (q *Query[T]) LessThanOrEqual(v any) *Query[T] { q.frag.LessThanOrEqual(v); return q }

// Like appends "LIKE @ElmN" bound to pattern.
func (q *Query[T]) Like(pattern any) *Query[T] { q.frag.Like(pattern); return q }

// In appends "IN (@ElmN, ...)" with one placeholder per value.
func (q *Query[T]) In(vs ...any) *Query[T] { q.frag.In(vs...); return q }

// Between appends "BETWEEN @ElmN AND @ElmN+1" bound to lo and hi.
func (q *Query[T]) Between(lo, hi any) *Query[T] { q.frag.Between(lo, hi); return q }

// Limit appends "LIMIT @ElmN" bound to n.
func (q *Query[T]) Limit(n int) *Query[T] { q.frag.Limit(n); return q }

// Offset appends "OFFSET @ElmN" bound to n.
func (q *Query[T]) Offset(n int) *Query[T] { q.frag.Offset(n); return q }

// Distinct makes Select return distinct rows only.
func (q *Query[T]) Distinct() *Query[T] { q.distinct = true; return q }

// Clause returns the accumulated clause text.
func (q *Query[T]) Clause() string {
	return q.frag.String()
}

// Args returns the values bound to the clause, in placeholder order.
func (q *Query[T]) Args() []sql.NamedArg {
	return q.frag.Args()
}

// SelectStatement returns the statement Select would run.
func (q *Query[T]) SelectStatement(columns ...string) sql.Statement {
	head := "SELECT "
	if q.distinct {
		head += "DISTINCT "
	}
	if len(columns) == 0 {
		head += "*"
	} else {
		head += strings.Join(columns, ", ")
	}
	return q.frag.Statement(head + " FROM " + q.table.desc.Table)
}

// DeleteStatement returns the statement Delete would run.
func (q *Query[T]) DeleteStatement() sql.Statement {
	return q.frag.Statement("DELETE FROM " + q.table.desc.Table)
}

// Select runs the query and returns the matching records. Without columns
// every column is selected.
func (q *Query[T]) Select(ctx context.Context, columns ...string) ([]T, error) {
	if err := q.consume(); err != nil {
		return nil, err
	}
	return q.table.all(ctx, q.SelectStatement(columns...))
}

// Delete deletes the rows matching the query and returns their number.
func (q *Query[T]) Delete(ctx context.Context) (int64, error) {
	if err := q.consume(); err != nil {
		return 0, err
	}
	return q.table.affected(ctx, q.DeleteStatement())
}

func (q *Query[T]) consume() error {
	if q.consumed {
		return ErrQueryConsumed
	}
	q.consumed = true
	if err := q.frag.Err(); err != nil {
		return fmt.Errorf("lorm: %w", err)
	}
	return nil
}
