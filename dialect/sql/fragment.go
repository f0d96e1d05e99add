package sql

import (
	"errors"
	"strconv"
	"strings"
)

// ParamPrefix prefixes the numbered placeholders written by a Fragment:
// the first value binds to "@Elm0", the second to "@Elm1" and so on.
const ParamPrefix = "Elm"

// Fragment accumulates the clause text of a fluent query and the values
// bound to it.
//
// Structural methods (Where, And, OrderBy, GroupBy, Join...) append the
// caller's text verbatim. It is never escaped nor parameterized and must
// only carry trusted column names or expressions. Value methods (Equals,
// Like, In, Limit...) append one numbered placeholder per value and bind
// the value to it.
//
//	f := sql.NewFragment().
//		Where("Role_Id").Equals(1).
//		AndNot("surname").Equals("Test1")
//	f.String() // WHERE Role_Id = @Elm0 AND NOT surname = @Elm1
type Fragment struct {
	sb   strings.Builder
	args []NamedArg
	n    int
	errs []error
}

// NewFragment returns an empty fragment.
func NewFragment() *Fragment {
	return &Fragment{}
}

// Where appends "WHERE expr".
func (f *Fragment) Where(expr string) *Fragment { return f.raw("WHERE", expr) }

// WhereNot appends "WHERE NOT expr".
func (f *Fragment) WhereNot(expr string) *Fragment { return f.raw("WHERE NOT", expr) }

// And appends "AND expr".
func (f *Fragment) And(expr string) *Fragment { return f.raw("AND", expr) }

// AndNot appends "AND NOT expr".
func (f *Fragment) AndNot(expr string) *Fragment { return f.raw("AND NOT", expr) }

// Or appends "OR expr".
func (f *Fragment) Or(expr string) *Fragment { return f.raw("OR", expr) }

// OrNot appends "OR NOT expr".
func (f *Fragment) OrNot(expr string) *Fragment { return f.raw("OR NOT", expr) }

// OrderBy appends "ORDER BY expr".
func (f *Fragment) OrderBy(expr string) *Fragment { return f.raw("ORDER BY", expr) }

// GroupBy appends "GROUP BY expr".
func (f *Fragment) GroupBy(expr string) *Fragment { return f.raw("GROUP BY", expr) }

// Having appends "HAVING expr".
func (f *Fragment) Having(expr string) *Fragment { return f.raw("HAVING", expr) }

// Join appends "JOIN table".
func (f *Fragment) Join(table string) *Fragment { return f.raw("JOIN", table) }

// InnerJoin appends "INNER JOIN table".
func (f *Fragment) InnerJoin(table string) *Fragment { return f.raw("INNER JOIN", table) }

// LeftJoin appends "LEFT JOIN table".
func (f *Fragment) LeftJoin(table string) *Fragment { return f.raw("LEFT JOIN", table) }

// RightJoin appends "RIGHT JOIN table".
func (f *Fragment) RightJoin(table string) *Fragment { return f.raw("RIGHT JOIN", table) }

// FullJoin appends "FULL JOIN table".
func (f *Fragment) FullJoin(table string) *Fragment { return f.raw("FULL JOIN", table) }

// CrossJoin appends "CROSS JOIN table".
func (f *Fragment) CrossJoin(table string) *Fragment { return f.raw("CROSS JOIN", table) }

// IsNull appends "IS NULL".
func (f *Fragment) IsNull() *Fragment { return f.raw("IS NULL", "") }

// IsNotNull appends "IS NOT NULL".
func (f *Fragment) IsNotNull() *Fragment { return f.raw("IS NOT NULL", "") }

// Equals appends "= @ElmN" bound to v.
func (f *Fragment) Equals(v any) *Fragment { return f.op("=", v) }

// GreaterThan appends "> @ElmN" bound to v.
func (f *Fragment) GreaterThan(v any) *Fragment { return f.op(">", v) }

// LessThan appends "< @ElmN" bound to v.
func (f *Fragment) LessThan(v any) *Fragment { return f.op("<", v) }

// GreaterThanOrEqual appends ">= @ElmN" bound to v.
func (f *Fragment) GreaterThanOrEqual(v any) *Fragment { return f.op(">=", v) }

// LessThanOrEqual appends "<= @ElmN" bound to v.
func (f *Fragment) LessThanOrEqual(v any) *Fragment { return f.op("<=", v) }

// Like appends "LIKE @ElmN" bound to pattern.
func (f *Fragment) Like(pattern any) *Fragment { return f.op("LIKE", pattern) }

// Limit appends "LIMIT @ElmN" bound to n.
func (f *Fragment) Limit(n int) *Fragment { return f.op("LIMIT", n) }

// Offset appends "OFFSET @ElmN" bound to n.
func (f *Fragment) Offset(n int) *Fragment { return f.op("OFFSET", n) }

// Between appends "BETWEEN @ElmN AND @ElmN+1" bound to lo and hi.
func (f *Fragment) Between(lo, hi any) *Fragment {
	f.sb.WriteString(" BETWEEN ")
	f.sb.WriteString(f.bind(lo))
	f.sb.WriteString(" AND ")
	f.sb.WriteString(f.bind(hi))
	return f
}

// In appends "IN (@ElmN, @ElmN+1, ...)" with one placeholder per value.
// Calling In without values records an error reported by Err.
func (f *Fragment) In(vs ...any) *Fragment {
	if len(vs) == 0 {
		f.errs = append(f.errs, errors.New("dialect/sql: IN requires at least one value"))
		return f
	}
	f.sb.WriteString(" IN (")
	for i, v := range vs {
		if i > 0 {
			f.sb.WriteString(", ")
		}
		f.sb.WriteString(f.bind(v))
	}
	f.sb.WriteByte(')')
	return f
}

// String returns the accumulated clause text.
func (f *Fragment) String() string {
	return strings.TrimSpace(f.sb.String())
}

// Args returns the bound values in placeholder order.
func (f *Fragment) Args() []NamedArg {
	return f.args
}

// Counter returns the number of placeholders written so far.
func (f *Fragment) Counter() int {
	return f.n
}

// Err returns the errors recorded while building the fragment, if any.
func (f *Fragment) Err() error {
	return errors.Join(f.errs...)
}

// Statement returns the statement formed by head followed by the clause,
// as in Statement("SELECT * FROM users").
func (f *Fragment) Statement(head string) Statement {
	text := head
	if clause := f.String(); clause != "" {
		text += " " + clause
	}
	return Statement{Text: text, Args: f.args}
}

func (f *Fragment) raw(keyword, expr string) *Fragment {
	f.sb.WriteByte(' ')
	f.sb.WriteString(keyword)
	if expr != "" {
		f.sb.WriteByte(' ')
		f.sb.WriteString(expr)
	}
	return f
}

func (f *Fragment) op(op string, v any) *Fragment {
	f.sb.WriteByte(' ')
	f.sb.WriteString(op)
	f.sb.WriteByte(' ')
	f.sb.WriteString(f.bind(v))
	return f
}

// bind registers v under the next placeholder and returns its token.
func (f *Fragment) bind(v any) string {
	name := ParamPrefix + strconv.Itoa(f.n)
	f.n++
	f.args = append(f.args, Named(name, v))
	return Placeholder(name)
}
