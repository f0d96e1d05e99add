package field

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// Rule validation errors. Failures returned by Rule.Validate wrap one of them.
var (
	// ErrNull is returned by a NotNull rule for a null value.
	ErrNull = errors.New("value cannot be null")

	// ErrTooLong is returned by a MaxLen rule for a value exceeding its bound.
	ErrTooLong = errors.New("value too long")
)

// RuleKind identifies the variant of a Rule.
type RuleKind uint8

// Supported rule kinds.
const (
	KindNotNull RuleKind = iota + 1
	KindMaxLen
)

// String returns the tag spelling of the kind.
func (k RuleKind) String() string {
	switch k {
	case KindNotNull:
		return "notnull"
	case KindMaxLen:
		return "maxlen"
	default:
		return "RuleKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Rule is a validation predicate attached to a field.
// The zero value is not a valid rule; use NotNull or MaxLen.
type Rule struct {
	Kind RuleKind
	// Max is the maximum length for KindMaxLen rules.
	Max int
}

// NotNull returns a rule rejecting null values.
func NotNull() Rule { return Rule{Kind: KindNotNull} }

// MaxLen returns a rule rejecting text values longer than n characters.
// Null values pass.
func MaxLen(n int) Rule { return Rule{Kind: KindMaxLen, Max: n} }

// String returns the tag spelling of the rule.
func (r Rule) String() string {
	if r.Kind == KindMaxLen {
		return r.Kind.String() + "=" + strconv.Itoa(r.Max)
	}
	return r.Kind.String()
}

// Validate runs the rule against the field value v.
func (r Rule) Validate(v reflect.Value) error {
	switch r.Kind {
	case KindNotNull:
		if IsNull(v) {
			return ErrNull
		}
		return nil
	case KindMaxLen:
		s, ok := text(v)
		if !ok {
			return nil
		}
		if n := utf8.RuneCountInString(s); n > r.Max {
			return fmt.Errorf("%w: length of %q is %d, greater than %d", ErrTooLong, s, n, r.Max)
		}
		return nil
	default:
		return fmt.Errorf("field: unknown rule kind %d", r.Kind)
	}
}

// ValidateAll runs rules in order and returns the first failure.
func ValidateAll(rules []Rule, v reflect.Value) error {
	for _, r := range rules {
		if err := r.Validate(v); err != nil {
			return err
		}
	}
	return nil
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// IsNull reports whether v holds a null value.
func IsNull(v reflect.Value) bool {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return true
		}
	}
	if v.Type().Implements(valuerType) {
		dv, err := v.Interface().(driver.Valuer).Value()
		return err == nil && dv == nil
	}
	return false
}

// text extracts the text held by v, following pointers and valuers.
func text(v reflect.Value) (string, bool) {
	if IsNull(v) {
		return "", false
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.String:
		return v.String(), true
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		return string(v.Bytes()), true
	case v.Type().Implements(valuerType):
		dv, err := v.Interface().(driver.Valuer).Value()
		if err != nil {
			return "", false
		}
		switch dv := dv.(type) {
		case string:
			return dv, true
		case []byte:
			return string(dv), true
		}
	}
	return "", false
}
