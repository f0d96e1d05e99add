package schema

import (
	"maps"
	"reflect"

	"github.com/syssam/lorm/schema/field"
)

// DefaultPrimaryKey is the primary key name used when no field is tagged "pk".
const DefaultPrimaryKey = "ID"

// Field describes one mapped field of a record type.
type Field struct {
	// Name is the Go field name.
	Name string
	// Column is the resolved column name: the alias if declared, else Name.
	Column string
	// Type is the declared Go type of the field.
	Type reflect.Type
	// Index is the index path of the field, for reflect.Value.FieldByIndex.
	Index []int
	// Rules are the validation rules, in declaration order.
	Rules []field.Rule
	// PrimaryKey reports whether the field carries the "pk" marker.
	PrimaryKey bool

	folded string // folded column name
}

// Value returns the field value held by the record rv.
func (f *Field) Value(rv reflect.Value) reflect.Value {
	return rv.FieldByIndex(f.Index)
}

// Descriptor is the resolved binding of a record type to a table.
// It is immutable after Bind returns and safe for concurrent reads.
type Descriptor struct {
	// Type is the bound record type.
	Type reflect.Type
	// Table is the table name, spelled as the store reports it.
	Table string
	// PrimaryKey is the name of the primary key field.
	PrimaryKey string
	// Fields holds the mapped fields in declaration order.
	Fields []*Field

	aliases  map[string]string
	rules    map[string][]field.Rule
	byName   map[string]*Field
	byColumn map[string]*Field
}

// Aliases returns a copy of the field to column mapping. Only fields whose
// column differs from their name are present.
func (d *Descriptor) Aliases() map[string]string {
	return maps.Clone(d.aliases)
}

// Rules returns the validation rules of the named field.
func (d *Descriptor) Rules(name string) []field.Rule {
	return d.rules[name]
}

// Field returns the field with the given name, compared case-insensitively.
func (d *Descriptor) Field(name string) *Field {
	return d.byName[Fold(name)]
}

// FieldByColumn returns the field mapped to the given column, compared
// case-insensitively. When two fields resolve to the same column, the first
// declared one wins.
func (d *Descriptor) FieldByColumn(column string) *Field {
	return d.byColumn[Fold(column)]
}

// Column resolves a field name to its column. Names that are not fields of
// the record are returned unchanged.
func (d *Descriptor) Column(name string) string {
	if f := d.Field(name); f != nil {
		return f.Column
	}
	return name
}

// PrimaryKeyField returns the primary key field, or nil if the record type
// has no field with that name.
func (d *Descriptor) PrimaryKeyField() *Field {
	return d.Field(d.PrimaryKey)
}

// PrimaryKeyColumn returns the column of the primary key.
func (d *Descriptor) PrimaryKeyColumn() string {
	return d.Column(d.PrimaryKey)
}

// Writable returns the fields written by inserts and updates: every field
// except the primary key, in declaration order.
func (d *Descriptor) Writable() []*Field {
	pk := d.PrimaryKeyField()
	fields := make([]*Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f != pk {
			fields = append(fields, f)
		}
	}
	return fields
}

// Folded returns the folded column name of f, as used by FieldByColumn.
func (f *Field) Folded() string {
	return f.folded
}
