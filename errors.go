package lorm

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/lorm/dialect/sql/sqlerr"
)

// Standard sentinel errors.
var (
	// ErrNotFound is returned when a lookup yields no row.
	ErrNotFound = errors.New("lorm: record not found")

	// ErrQueryConsumed is returned by a terminal call on a Query that
	// already ran one.
	ErrQueryConsumed = errors.New("lorm: query already consumed")

	// ErrInvalidPage is returned by GetPage for a page or size below 1, or
	// when the page offset does not fit in an int.
	ErrInvalidPage = errors.New("lorm: page and size must be positive")

	// ErrBindingConflict is returned by Register when a record type that is
	// already bound is registered again with options resolving to another
	// table.
	ErrBindingConflict = errors.New("lorm: record type bound to another table")
)

// NotFoundError is returned when GetLatest or GetElementByID finds no row.
type NotFoundError struct {
	table string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("lorm: %s not found (id=%v)", e.table, e.id)
	}
	return fmt.Sprintf("lorm: %s not found", e.table)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Table returns the table that was searched.
func (e *NotFoundError) Table() string {
	return e.table
}

// ID returns the key that was searched for, if any.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a NotFoundError for table.
func NewNotFoundError(table string) *NotFoundError {
	return &NotFoundError{table: table}
}

// NewNotFoundErrorWithID returns a NotFoundError for the key id of table.
func NewNotFoundErrorWithID(table string, id any) *NotFoundError {
	return &NotFoundError{table: table, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// SchemaBindingError is returned by Register when a record type cannot be
// bound to a table of the store.
type SchemaBindingError struct {
	Type string // Record type name
	Err  error  // Underlying binding error
}

// Error returns the error string.
func (e *SchemaBindingError) Error() string {
	return fmt.Sprintf("lorm: binding %s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *SchemaBindingError) Unwrap() error {
	return e.Err
}

// IsSchemaBindingError returns true if the error is a SchemaBindingError.
func IsSchemaBindingError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaBindingError
	return errors.As(err, &e)
}

// ValidationError is returned when a field value fails one of its rules.
// Nothing is sent to the store when it occurs.
type ValidationError struct {
	Name string // Field name
	Err  error  // Underlying rule failure
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("lorm: validator failed for field %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// PrimaryKeyNotFoundError is returned by Update and Delete when the record
// type has no field named after its primary key.
type PrimaryKeyNotFoundError struct {
	Type string // Record type name
	Key  string // Primary key name
}

// Error returns the error string.
func (e *PrimaryKeyNotFoundError) Error() string {
	return fmt.Sprintf("lorm: %s has no primary key field %q", e.Type, e.Key)
}

// IsPrimaryKeyNotFound returns true if the error is a PrimaryKeyNotFoundError.
func IsPrimaryKeyNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *PrimaryKeyNotFoundError
	return errors.As(err, &e)
}

// StatementExecutionError wraps a failure reported by the store while
// running a generated statement.
type StatementExecutionError struct {
	Query string // Statement text, with named placeholders
	Err   error  // Error reported by the driver
}

// Error returns the error string.
func (e *StatementExecutionError) Error() string {
	return fmt.Sprintf("lorm: executing %q: %v", e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *StatementExecutionError) Unwrap() error {
	return e.Err
}

// IsStatementExecutionError returns true if the error is a
// StatementExecutionError.
func IsStatementExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *StatementExecutionError
	return errors.As(err, &e)
}

// IsConstraintError returns true if the store rejected a statement because
// of a constraint violation.
func IsConstraintError(err error) bool {
	return sqlerr.IsConstraintError(err)
}

// TypeConversionError is returned when a stored value cannot be converted
// to the Go type requested for it.
type TypeConversionError struct {
	Column string       // Source column
	Value  any          // Value read from the store
	Type   reflect.Type // Requested type
	Err    error        // Optional cause
}

// Error returns the error string.
func (e *TypeConversionError) Error() string {
	msg := fmt.Sprintf("lorm: converting column %q (%T) to %s", e.Column, e.Value, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *TypeConversionError) Unwrap() error {
	return e.Err
}

// IsTypeConversionError returns true if the error is a TypeConversionError.
func IsTypeConversionError(err error) bool {
	if err == nil {
		return false
	}
	var e *TypeConversionError
	return errors.As(err, &e)
}

// BatchShapeError is returned by BulkInsert when a row does not write the
// same columns as the first row.
type BatchShapeError struct {
	Row  int      // Index of the offending row
	Want []string // Columns written by row 0
	Got  []string // Columns written by Row
}

// Error returns the error string.
func (e *BatchShapeError) Error() string {
	return fmt.Sprintf("lorm: bulk insert row %d writes (%s), row 0 writes (%s)",
		e.Row, strings.Join(e.Got, ", "), strings.Join(e.Want, ", "))
}

// IsBatchShapeError returns true if the error is a BatchShapeError.
func IsBatchShapeError(err error) bool {
	if err == nil {
		return false
	}
	var e *BatchShapeError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("lorm: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}
