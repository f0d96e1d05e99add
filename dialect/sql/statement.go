package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/syssam/lorm/dialect"
)

// Marker is the leading character of named placeholders in generated
// statements, as in "@Name".
const Marker = '@'

// ErrMissingArg is returned by Rebind when the text references a placeholder
// that has no bound argument.
var ErrMissingArg = errors.New("dialect/sql: missing value for placeholder")

// Placeholder returns the placeholder token for the given parameter name.
func Placeholder(name string) string {
	return string(Marker) + name
}

// Statement is a generated SQL statement: text holding named placeholders
// and the ordered arguments bound to them.
type Statement struct {
	Text string
	Args []NamedArg
}

// String implements the fmt.Stringer interface.
func (s Statement) String() string {
	return s.Text
}

// Arg returns the value bound to the named placeholder.
func (s Statement) Arg(name string) (any, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Values returns the bound values in binding order.
func (s Statement) Values() []any {
	vs := make([]any, len(s.Args))
	for i, a := range s.Args {
		vs[i] = a.Value
	}
	return vs
}

// Rebind rewrites the named placeholders of the statement into the
// positional style of the given dialect and returns the matching argument
// list: "?" for MySQL and SQLite, "$1, $2, ..." for Postgres. Quoted
// literals, quoted identifiers and comments are left untouched.
func (s Statement) Rebind(name string) (string, []any, error) {
	lookup := make(map[string]any, len(s.Args))
	for _, a := range s.Args {
		lookup[a.Name] = a.Value
	}
	var (
		b     strings.Builder
		args  = make([]any, 0, len(s.Args))
		index = make(map[string]int)
		q     = s.Text
	)
	b.Grow(len(q))
	for i := 0; i < len(q); {
		r, w := utf8.DecodeRuneInString(q[i:])
		switch r {
		case '\'', '"', '`':
			j := skipQuoted(q, i+w, r)
			b.WriteString(q[i:j])
			i = j
			continue
		case '-':
			if strings.HasPrefix(q[i:], "--") {
				j := strings.IndexByte(q[i:], '\n')
				if j < 0 {
					j = len(q) - i
				}
				b.WriteString(q[i : i+j])
				i += j
				continue
			}
		case '/':
			if strings.HasPrefix(q[i:], "/*") {
				j := strings.Index(q[i+2:], "*/")
				if j < 0 {
					j = len(q) - i
				} else {
					j += 4
				}
				b.WriteString(q[i : i+j])
				i += j
				continue
			}
		case Marker:
			// "@@var" is a MySQL system variable, not a placeholder.
			if strings.HasPrefix(q[i:], "@@") {
				j := i + 2
				for j < len(q) && isIdentByte(q[j]) {
					j++
				}
				b.WriteString(q[i:j])
				i = j
				continue
			}
			ident := parseIdent(q, i+w)
			if ident == "" {
				break
			}
			v, ok := lookup[ident]
			if !ok {
				return "", nil, fmt.Errorf("%w %s", ErrMissingArg, Placeholder(ident))
			}
			switch name {
			case dialect.Postgres:
				n, seen := index[ident]
				if !seen {
					args = append(args, v)
					n = len(args)
					index[ident] = n
				}
				b.WriteByte('$')
				b.WriteString(strconv.Itoa(n))
			default:
				args = append(args, v)
				b.WriteByte('?')
			}
			i += w + len(ident)
			continue
		}
		b.WriteString(q[i : i+w])
		i += w
	}
	return b.String(), args, nil
}

// skipQuoted returns the index after the closing quote q, honoring doubled
// quotes as escapes. Unterminated literals run to the end of s.
func skipQuoted(s string, i int, q rune) int {
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		i += w
		if r == q {
			if i < len(s) && rune(s[i]) == q {
				i++
				continue
			}
			return i
		}
	}
	return len(s)
}

// parseIdent returns the identifier starting at s[i], or "" if s[i] cannot
// start an identifier.
func parseIdent(s string, i int) string {
	j := i
	for j < len(s) {
		r, w := utf8.DecodeRuneInString(s[j:])
		if r == '_' || unicode.IsLetter(r) || (j > i && unicode.IsDigit(r)) {
			j += w
			continue
		}
		break
	}
	return s[i:j]
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
