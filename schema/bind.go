package schema

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"

	"github.com/syssam/lorm/schema/field"
)

// Binding errors.
var (
	// ErrNoTable is returned when no table of the store matches the record type.
	ErrNoTable = errors.New("no matching table")

	// ErrNotStruct is returned when the record type is not a struct.
	ErrNotStruct = errors.New("record type must be a struct")
)

// Tabler is implemented by record types that override their table name.
type Tabler interface {
	TableName() string
}

// Option configures Bind.
type Option func(*bindConfig)

type bindConfig struct {
	table   string
	inflect bool
}

// Table overrides the table name of the record type. It takes precedence
// over a TableName method.
func Table(name string) Option {
	return func(c *bindConfig) {
		c.table = name
	}
}

// Inflect enables snake_case and plural fallbacks during table resolution.
func Inflect() Option {
	return func(c *bindConfig) {
		c.inflect = true
	}
}

// Fold returns the case-folded form of s, used for all case-insensitive
// comparisons of table, field and column names.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Bind resolves the record type typ against the table names known to the
// store and returns its descriptor.
func Bind(typ reflect.Type, tables []string, opts ...Option) (*Descriptor, error) {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: bind %v: %w", typ, ErrNotStruct)
	}
	cfg := bindConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	name := TableName(typ, cfg.table)
	table, ok := resolveTable(name, tables, cfg.inflect)
	if !ok {
		return nil, fmt.Errorf("schema: bind %s to %q: %w", typ.Name(), name, ErrNoTable)
	}
	d := &Descriptor{
		Type:       typ,
		Table:      table,
		PrimaryKey: DefaultPrimaryKey,
		aliases:    make(map[string]string),
		rules:      make(map[string][]field.Rule),
		byName:     make(map[string]*Field),
		byColumn:   make(map[string]*Field),
	}
	if err := d.collect(typ, nil); err != nil {
		return nil, fmt.Errorf("schema: bind %s: %w", typ.Name(), err)
	}
	for _, f := range d.Fields {
		if f.PrimaryKey {
			d.PrimaryKey = f.Name
			break
		}
	}
	return d, nil
}

// TableName returns the candidate table name of typ: override if not empty,
// else the result of a TableName method, else the type name.
func TableName(typ reflect.Type, override string) string {
	if override != "" {
		return override
	}
	if typ.Implements(tablerType) {
		return reflect.Zero(typ).Interface().(Tabler).TableName()
	}
	if reflect.PointerTo(typ).Implements(tablerType) {
		return reflect.New(typ).Interface().(Tabler).TableName()
	}
	return typ.Name()
}

var tablerType = reflect.TypeOf((*Tabler)(nil)).Elem()

// resolveTable returns the first table matching name case-insensitively.
func resolveTable(name string, tables []string, withInflect bool) (string, bool) {
	candidates := []string{name}
	if withInflect {
		under := inflect.Underscore(name)
		candidates = append(candidates, under, inflect.Pluralize(name), inflect.Pluralize(under))
	}
	for _, c := range candidates {
		fc := Fold(c)
		for _, t := range tables {
			if Fold(t) == fc {
				return t, true
			}
		}
	}
	return "", false
}

// collect walks the fields of typ in declaration order.
func (d *Descriptor) collect(typ reflect.Type, base []int) error {
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}
		raw, hasTag := sf.Tag.Lookup(TagName)
		t, err := parseTag(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
		if t.omit {
			continue
		}
		index := append(append([]int(nil), base...), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !hasTag {
			if err := d.collect(sf.Type, index); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		f := &Field{
			Name:       sf.Name,
			Column:     sf.Name,
			Type:       sf.Type,
			Index:      index,
			Rules:      t.rules,
			PrimaryKey: t.pk,
		}
		if t.column != "" && t.column != sf.Name {
			f.Column = t.column
			d.aliases[f.Name] = f.Column
		}
		if len(t.rules) > 0 {
			d.rules[f.Name] = t.rules
		}
		f.folded = Fold(f.Column)
		d.Fields = append(d.Fields, f)
		if k := Fold(f.Name); d.byName[k] == nil {
			d.byName[k] = f
		}
		if d.byColumn[f.folded] == nil {
			d.byColumn[f.folded] = f
		}
	}
	return nil
}
