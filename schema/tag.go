package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/lorm/schema/field"
)

// TagName is the struct tag key holding field metadata.
const TagName = "db"

// tag is the parsed form of a `db` struct tag.
type tag struct {
	column string
	pk     bool
	omit   bool
	rules  []field.Rule
}

// parseTag supports: "-", "col", ",pk", "col,notnull,maxlen=50".
func parseTag(s string) (tag, error) {
	var t tag
	if s == "-" {
		t.omit = true
		return t, nil
	}
	if s == "" {
		return t, nil
	}
	parts := strings.Split(s, ",")
	t.column = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		name, arg, hasArg := strings.Cut(opt, "=")
		switch name {
		case "":
		case "pk":
			t.pk = true
		case "notnull":
			t.rules = append(t.rules, field.NotNull())
		case "maxlen":
			if !hasArg {
				return t, fmt.Errorf("option maxlen requires a length")
			}
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				return t, fmt.Errorf("invalid maxlen %q", arg)
			}
			t.rules = append(t.rules, field.MaxLen(n))
		default:
			return t, fmt.Errorf("unknown option %q", opt)
		}
	}
	return t, nil
}
