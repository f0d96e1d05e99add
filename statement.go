package lorm

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/lorm/dialect"
	"github.com/syssam/lorm/dialect/sql"
	"github.com/syssam/lorm/schema"
	"github.com/syssam/lorm/schema/field"
)

// PrimaryKeyParam is the placeholder name bound to the key in updates.
const PrimaryKeyParam = "PrimaryKey"

// IDParam is the placeholder name bound to the key in GetElementByID.
const IDParam = "id"

// generator builds the statements of one bound record type.
type generator struct {
	desc    *schema.Descriptor
	dialect string
}

// record returns the struct value held by entity.
func (g generator) record(entity any) (reflect.Value, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("lorm: nil %s record", g.desc.Type)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != g.desc.Type {
		return reflect.Value{}, fmt.Errorf("lorm: expect %s record, got %T", g.desc.Type, entity)
	}
	return rv, nil
}

// validate runs the rules of the written fields in declaration order.
func (g generator) validate(rv reflect.Value) error {
	for _, f := range g.desc.Writable() {
		if err := field.ValidateAll(f.Rules, f.Value(rv)); err != nil {
			return NewValidationError(f.Name, err)
		}
	}
	return nil
}

// present returns the written fields of rv holding a non-null value.
func (g generator) present(rv reflect.Value) []*schema.Field {
	var fields []*schema.Field
	for _, f := range g.desc.Writable() {
		if !field.IsNull(f.Value(rv)) {
			fields = append(fields, f)
		}
	}
	return fields
}

// Insert builds an insert of the non-null fields of the record.
func (g generator) Insert(entity any) (sql.Statement, error) {
	rv, err := g.record(entity)
	if err != nil {
		return sql.Statement{}, err
	}
	if err := g.validate(rv); err != nil {
		return sql.Statement{}, err
	}
	fields := g.present(rv)
	if len(fields) == 0 {
		return sql.Statement{Text: g.insertDefaults()}, nil
	}
	var (
		columns = make([]string, len(fields))
		params  = make([]string, len(fields))
		args    = make([]sql.NamedArg, len(fields))
	)
	for i, f := range fields {
		columns[i] = f.Column
		params[i] = sql.Placeholder(f.Column)
		args[i] = sql.Named(f.Column, argValue(f.Value(rv)))
	}
	return sql.Statement{
		Text: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			g.desc.Table, strings.Join(columns, ", "), strings.Join(params, ", ")),
		Args: args,
	}, nil
}

func (g generator) insertDefaults() string {
	if g.dialect == dialect.MySQL {
		return "INSERT INTO " + g.desc.Table + " () VALUES ()"
	}
	return "INSERT INTO " + g.desc.Table + " DEFAULT VALUES"
}

// BulkInsert builds a single multi-row insert. Every row is validated, and
// every row must write the same columns as the first one.
func (g generator) BulkInsert(entities []any) (sql.Statement, error) {
	if len(entities) == 0 {
		return sql.Statement{}, nil
	}
	rows := make([]reflect.Value, len(entities))
	for i, e := range entities {
		rv, err := g.record(e)
		if err != nil {
			return sql.Statement{}, err
		}
		if err := g.validate(rv); err != nil {
			return sql.Statement{}, fmt.Errorf("lorm: bulk insert row %d: %w", i, err)
		}
		rows[i] = rv
	}
	shape := g.present(rows[0])
	columns := columnsOf(shape)
	for i, rv := range rows[1:] {
		if got := g.present(rv); !slices.Equal(got, shape) {
			return sql.Statement{}, &BatchShapeError{Row: i + 1, Want: columns, Got: columnsOf(got)}
		}
	}
	if len(shape) == 0 {
		return sql.Statement{}, errors.New("lorm: bulk insert rows have no non-null column")
	}
	var (
		b    strings.Builder
		args = make([]sql.NamedArg, 0, len(rows)*len(shape))
		seen = make(map[string]struct{}, cap(args))
	)
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", g.desc.Table, strings.Join(columns, ", "))
	for i, rv := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, f := range shape {
			name := f.Column + strconv.Itoa(i)
			if _, ok := seen[name]; ok {
				return sql.Statement{}, fmt.Errorf("lorm: bulk insert placeholder %s is ambiguous", sql.Placeholder(name))
			}
			seen[name] = struct{}{}
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(sql.Placeholder(name))
			args = append(args, sql.Named(name, argValue(f.Value(rv))))
		}
		b.WriteByte(')')
	}
	return sql.Statement{Text: b.String(), Args: args}, nil
}

// Update builds an update of every written field, nulls included, keyed by
// the primary key.
func (g generator) Update(entity any) (sql.Statement, error) {
	rv, err := g.record(entity)
	if err != nil {
		return sql.Statement{}, err
	}
	if err := g.validate(rv); err != nil {
		return sql.Statement{}, err
	}
	pk, err := g.primaryKey()
	if err != nil {
		return sql.Statement{}, err
	}
	fields := g.desc.Writable()
	if len(fields) == 0 {
		return sql.Statement{}, fmt.Errorf("lorm: %s has no column to update", g.desc.Type)
	}
	var (
		set  = make([]string, len(fields))
		args = make([]sql.NamedArg, 0, len(fields)+1)
	)
	for i, f := range fields {
		set[i] = f.Column + "=" + sql.Placeholder(f.Column)
		args = append(args, sql.Named(f.Column, argValue(f.Value(rv))))
	}
	args = append(args, sql.Named(PrimaryKeyParam, argValue(pk.Value(rv))))
	return sql.Statement{
		Text: fmt.Sprintf("UPDATE %s SET %s WHERE %s=%s",
			g.desc.Table, strings.Join(set, ", "), pk.Column, sql.Placeholder(PrimaryKeyParam)),
		Args: args,
	}, nil
}

// Delete builds a delete of the row holding the primary key of the record.
func (g generator) Delete(entity any) (sql.Statement, error) {
	rv, err := g.record(entity)
	if err != nil {
		return sql.Statement{}, err
	}
	pk, err := g.primaryKey()
	if err != nil {
		return sql.Statement{}, err
	}
	return sql.Statement{
		Text: fmt.Sprintf("DELETE FROM %s WHERE %s=%s", g.desc.Table, pk.Column, sql.Placeholder(pk.Column)),
		Args: []sql.NamedArg{sql.Named(pk.Column, argValue(pk.Value(rv)))},
	}, nil
}

// Fetch builds a select of the rows equal to every condition. Conditions
// are a struct, read in declaration order, or a map keyed by field or
// column name, read in key order. Null conditions match with IS NULL.
func (g generator) Fetch(conditions any) (sql.Statement, error) {
	conds, err := g.conditions(conditions)
	if err != nil {
		return sql.Statement{}, err
	}
	text := "SELECT * FROM " + g.desc.Table
	if len(conds) == 0 {
		return sql.Statement{Text: text}, nil
	}
	var (
		where = make([]string, len(conds))
		args  []sql.NamedArg
	)
	for i, c := range conds {
		if c.value == nil {
			where[i] = c.column + " IS NULL"
			continue
		}
		where[i] = c.column + "=" + sql.Placeholder(c.column)
		args = append(args, sql.Named(c.column, c.value))
	}
	return sql.Statement{Text: text + " WHERE " + strings.Join(where, " AND "), Args: args}, nil
}

type condition struct {
	column string
	value  any
}

func (g generator) conditions(conditions any) ([]condition, error) {
	if conditions == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(conditions)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	var conds []condition
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("lorm: fetch conditions must be keyed by string, got %s", rv.Type())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		for _, k := range keys {
			v := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
			conds = append(conds, g.condition(k, v))
		}
	case reflect.Struct:
		typ := rv.Type()
		for i := 0; i < typ.NumField(); i++ {
			sf := typ.Field(i)
			if !sf.IsExported() || sf.Tag.Get(schema.TagName) == "-" {
				continue
			}
			conds = append(conds, g.condition(sf.Name, rv.Field(i)))
		}
	default:
		return nil, fmt.Errorf("lorm: fetch conditions must be a struct or a map, got %T", conditions)
	}
	for i := 1; i < len(conds); i++ {
		if slices.ContainsFunc(conds[:i], func(c condition) bool { return schema.Fold(c.column) == schema.Fold(conds[i].column) }) {
			return nil, fmt.Errorf("lorm: fetch condition on column %s given twice", conds[i].column)
		}
	}
	return conds, nil
}

func (g generator) condition(name string, v reflect.Value) condition {
	c := condition{column: g.desc.Column(name)}
	if !field.IsNull(v) {
		c.value = argValue(v)
	}
	return c
}

// Count builds a count of every row.
func (g generator) Count() sql.Statement {
	return sql.Statement{Text: "SELECT COUNT(*) FROM " + g.desc.Table}
}

// Latest builds a select of the row with the greatest primary key.
func (g generator) Latest() sql.Statement {
	return sql.Statement{
		Text: fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC LIMIT 1", g.desc.Table, g.desc.PrimaryKeyColumn()),
	}
}

// Page builds a select of the 1-based page of the given size.
func (g generator) Page(page, size int) (sql.Statement, error) {
	if page < 1 || size < 1 || page-1 > math.MaxInt/size {
		return sql.Statement{}, fmt.Errorf("%w: page %d, size %d", ErrInvalidPage, page, size)
	}
	return sql.Statement{
		Text: fmt.Sprintf("SELECT * FROM %s LIMIT %d OFFSET %d", g.desc.Table, size, (page-1)*size),
	}, nil
}

// ByID builds a select of the row holding the primary key id.
func (g generator) ByID(id any) sql.Statement {
	return sql.Statement{
		Text: fmt.Sprintf("SELECT * FROM %s WHERE %s=%s", g.desc.Table, g.desc.PrimaryKeyColumn(), sql.Placeholder(IDParam)),
		Args: []sql.NamedArg{sql.Named(IDParam, id)},
	}
}

func (g generator) primaryKey() (*schema.Field, error) {
	pk := g.desc.PrimaryKeyField()
	if pk == nil {
		return nil, &PrimaryKeyNotFoundError{Type: g.desc.Type.String(), Key: g.desc.PrimaryKey}
	}
	return pk, nil
}

func columnsOf(fields []*schema.Field) []string {
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Column
	}
	return columns
}

var valuerType = reflect.TypeFor[driver.Valuer]()

// argValue returns the value bound for v: nil for nulls, the pointed value
// for pointers, and v itself for driver.Valuer implementations.
func argValue(v reflect.Value) any {
	if field.IsNull(v) {
		return nil
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		if v.Type().Implements(valuerType) {
			break
		}
		v = v.Elem()
	}
	return v.Interface()
}
