package lorm

import (
	stdsql "database/sql"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/lorm/dialect/sql"
	"github.com/syssam/lorm/schema"
)

// timeLayouts are tried in order when a stored text value is read into a
// time.Time field.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	scannerType = reflect.TypeFor[stdsql.Scanner]()
	timeType    = reflect.TypeFor[time.Time]()
)

// scanAll reads every row of rows into a new record of type T. Columns are
// matched to fields by their case-folded resolved column; columns matching
// no field are ignored.
func scanAll[T any](rows sql.Rows, desc *schema.Descriptor) ([]T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("lorm: reading columns: %w", err)
	}
	// When several columns fold to one field, the last one fills it.
	plan := make([]*schema.Field, len(columns))
	last := make(map[*schema.Field]int, len(columns))
	for i, c := range columns {
		if f := desc.FieldByColumn(c); f != nil {
			if j, ok := last[f]; ok {
				plan[j] = nil
			}
			plan[i] = f
			last[f] = i
		}
	}
	var (
		out  []T
		raw  = make([]any, len(columns))
		dest = make([]any, len(columns))
	)
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("lorm: scanning %s row: %w", desc.Table, err)
		}
		var v T
		rv := reflect.ValueOf(&v).Elem()
		if rv.Kind() == reflect.Pointer {
			rv.Set(reflect.New(rv.Type().Elem()))
			rv = rv.Elem()
		}
		for i, f := range plan {
			if f == nil {
				continue
			}
			if err := assign(f.Value(rv), raw[i]); err != nil {
				return nil, &TypeConversionError{Column: columns[i], Value: raw[i], Type: f.Type, Err: err}
			}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lorm: reading %s rows: %w", desc.Table, err)
	}
	return out, nil
}

// scanScalar reads the single value of the first row into an int64.
func scanScalar(rows sql.Rows) (int64, error) {
	columns, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("lorm: reading columns: %w", err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("lorm: reading scalar: %w", err)
		}
		return 0, ErrNotFound
	}
	var raw any
	if err := rows.Scan(&raw); err != nil {
		return 0, fmt.Errorf("lorm: scanning scalar: %w", err)
	}
	var n int64
	if err := assign(reflect.ValueOf(&n).Elem(), raw); err != nil || raw == nil {
		column := ""
		if len(columns) > 0 {
			column = columns[0]
		}
		return 0, &TypeConversionError{Column: column, Value: raw, Type: reflect.TypeFor[int64](), Err: err}
	}
	return n, nil
}

// assign stores the raw store value src into dst. A nil src sets the zero
// value.
func assign(dst reflect.Value, src any) error {
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(stdsql.Scanner).Scan(src)
	}
	if src == nil {
		dst.SetZero()
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		if b, ok := src.([]byte); ok {
			src = append([]byte(nil), b...)
			sv = reflect.ValueOf(src)
		}
		dst.Set(sv)
		return nil
	}
	if dst.Type() == timeType {
		return assignTime(dst, src)
	}
	switch dst.Kind() {
	case reflect.String:
		s, ok := asText(sv)
		if !ok {
			return errUnsupported(src, dst)
		}
		dst.SetString(s)
		return nil
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.Uint8 {
			break
		}
		s, ok := asText(sv)
		if !ok {
			return errUnsupported(src, dst)
		}
		dst.SetBytes([]byte(s))
		return nil
	case reflect.Bool:
		return assignBool(dst, sv)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return assignInt(dst, sv)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return assignUint(dst, sv)
	case reflect.Float32, reflect.Float64:
		return assignFloat(dst, sv)
	}
	if sv.Type().ConvertibleTo(dst.Type()) && sv.Kind() == dst.Kind() {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return errUnsupported(src, dst)
}

func errUnsupported(src any, dst reflect.Value) error {
	return fmt.Errorf("unsupported conversion from %T to %s", src, dst.Type())
}

// asText returns the text form of strings, byte slices and numbers.
func asText(sv reflect.Value) (string, bool) {
	switch sv.Kind() {
	case reflect.String:
		return sv.String(), true
	case reflect.Slice:
		if sv.Type().Elem().Kind() == reflect.Uint8 {
			return string(sv.Bytes()), true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(sv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(sv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(sv.Float(), 'g', -1, sv.Type().Bits()), true
	case reflect.Bool:
		return strconv.FormatBool(sv.Bool()), true
	}
	if t, ok := sv.Interface().(time.Time); ok {
		return t.Format(time.RFC3339Nano), true
	}
	return "", false
}

func assignBool(dst, sv reflect.Value) error {
	switch sv.Kind() {
	case reflect.Bool:
		dst.SetBool(sv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetBool(sv.Int() != 0)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetBool(sv.Uint() != 0)
	default:
		s, ok := asText(sv)
		if !ok {
			return errUnsupported(sv.Interface(), dst)
		}
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		dst.SetBool(b)
	}
	return nil
}

func assignInt(dst, sv reflect.Value) error {
	var n int64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = sv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if sv.Uint() > math.MaxInt64 {
			return fmt.Errorf("value %d overflows %s", sv.Uint(), dst.Type())
		}
		n = int64(sv.Uint())
	case reflect.Float32, reflect.Float64:
		f := sv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return fmt.Errorf("value %v is not an integer of %s", f, dst.Type())
		}
		n = int64(f)
	case reflect.Bool:
		if sv.Bool() {
			n = 1
		}
	default:
		s, ok := asText(sv)
		if !ok {
			return errUnsupported(sv.Interface(), dst)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		n = v
	}
	if dst.OverflowInt(n) {
		return fmt.Errorf("value %d overflows %s", n, dst.Type())
	}
	dst.SetInt(n)
	return nil
}

func assignUint(dst, sv reflect.Value) error {
	var n uint64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if sv.Int() < 0 {
			return fmt.Errorf("value %d overflows %s", sv.Int(), dst.Type())
		}
		n = uint64(sv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = sv.Uint()
	case reflect.Float32, reflect.Float64:
		f := sv.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return fmt.Errorf("value %v is not an integer of %s", f, dst.Type())
		}
		n = uint64(f)
	case reflect.Bool:
		if sv.Bool() {
			n = 1
		}
	default:
		s, ok := asText(sv)
		if !ok {
			return errUnsupported(sv.Interface(), dst)
		}
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		n = v
	}
	if dst.OverflowUint(n) {
		return fmt.Errorf("value %d overflows %s", n, dst.Type())
	}
	dst.SetUint(n)
	return nil
}

func assignFloat(dst, sv reflect.Value) error {
	var f float64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(sv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(sv.Uint())
	case reflect.Float32, reflect.Float64:
		f = sv.Float()
	default:
		s, ok := asText(sv)
		if !ok {
			return errUnsupported(sv.Interface(), dst)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), dst.Type().Bits())
		if err != nil {
			return err
		}
		f = v
	}
	if dst.OverflowFloat(f) {
		return fmt.Errorf("value %v overflows %s", f, dst.Type())
	}
	dst.SetFloat(f)
	return nil
}

func assignTime(dst reflect.Value, src any) error {
	var s string
	switch src := src.(type) {
	case string:
		s = src
	case []byte:
		s = string(src)
	case int64:
		dst.Set(reflect.ValueOf(time.Unix(src, 0).UTC()))
		return nil
	default:
		return errUnsupported(src, dst)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as time", s)
}
