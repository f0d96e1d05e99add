// Package sql provides the database/sql backed driver of lorm and the
// statement primitives shared by the mapping engine.
//
// # Statements
//
// Generated SQL carries named placeholders of the form "@Name". A Statement
// pairs that text with its bound values, and Rebind rewrites it into the
// positional style of the target dialect:
//
//	stmt := sql.Statement{
//		Text: "SELECT * FROM users WHERE Id=@id",
//		Args: []sql.NamedArg{sql.Named("id", 1)},
//	}
//	query, args, err := stmt.Rebind(dialect.Postgres)
//	// SELECT * FROM users WHERE Id=$1 [1]
//
// # Fragments
//
// A Fragment accumulates the clause of a fluent query. Structural methods
// append trusted text, value methods bind numbered "@ElmN" placeholders:
//
//	f := sql.NewFragment().Where("Age").GreaterThan(18).OrderBy("Age DESC")
//	// WHERE Age > @Elm0 ORDER BY Age DESC
//
// # Drivers
//
// Driver adapts a *sql.DB to dialect.Driver. It receives statements in their
// named form and rebinds them just before they reach database/sql, so the
// decorators around it observe "@Name" text and named bindings: StatsDriver
// aggregates timings per statement text and reports slow statements, and
// DebugDriver writes a log/slog line per statement. Tables lists the
// tables of the connected store, as needed to bind record types, and Columns
// lists the columns of one of them.
package sql
