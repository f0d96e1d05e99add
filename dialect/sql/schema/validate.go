// Package schema checks record bindings against the tables of the store.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/lorm/dialect/sql"
	binding "github.com/syssam/lorm/schema"
	"github.com/syssam/lorm/schema/field"
)

// ValidationError represents a mismatch between a record binding and its
// table.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates that some generated statement will be rejected by
	// the store.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of a binding validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if any error or warning is breaking.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// Err returns the errors of the result joined as one error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return fmt.Errorf("schema: %d binding errors:\n%s", len(r.Errors), r)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, issues []*ValidationError) {
		if len(issues) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range issues {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures binding validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowUnmapped bool
}

// AllowUnmapped reports required columns that no field maps to as
// warnings instead of errors. Use it for records that are only read.
func AllowUnmapped() ValidateOption {
	return func(c *validateConfig) {
		c.allowUnmapped = true
	}
}

// ValidateBinding checks the descriptor of a record type against the
// columns of its table. Column names are compared case-insensitively.
//
//	columns, err := sql.Columns(ctx, drv, desc.Table)
//	if err != nil {
//		return err
//	}
//	if res := schema.ValidateBinding(desc, columns); res.HasErrors() {
//		log.Fatal(res)
//	}
func ValidateBinding(desc *binding.Descriptor, columns []sql.Column, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	if len(columns) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Table:    desc.Table,
			Message:  "table has no columns",
			Breaking: true,
		})
		return result
	}
	byName := make(map[string]sql.Column, len(columns))
	for _, c := range columns {
		byName[binding.Fold(c.Name)] = c
	}

	pk := desc.PrimaryKeyField()
	if pk == nil {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:    desc.Table,
			Message:  fmt.Sprintf("record %s has no primary key field %q, Update and Delete will fail", desc.Type, desc.PrimaryKey),
			Breaking: true,
		})
	}

	mapped := make(map[string]bool, len(desc.Fields))
	for _, f := range desc.Fields {
		mapped[f.Folded()] = true
		c, ok := byName[f.Folded()]
		if !ok {
			result.Errors = append(result.Errors, &ValidationError{
				Table:    desc.Table,
				Column:   f.Column,
				Message:  fmt.Sprintf("column of field %s does not exist", f.Name),
				Breaking: true,
			})
			continue
		}
		if n, ok := maxLen(f.Rules); ok && c.Size > 0 && int64(n) > c.Size {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   desc.Table,
				Column:  c.Name,
				Message: fmt.Sprintf("maxlen %d of field %s exceeds column size %d", n, f.Name, c.Size),
			})
		}
		if f != pk && !c.Nullable && !c.Default && nillable(f.Type) && !hasRule(f.Rules, field.KindNotNull) {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   desc.Table,
				Column:  c.Name,
				Message: fmt.Sprintf("field %s may be null but the column is NOT NULL without default", f.Name),
			})
		}
	}

	for _, c := range columns {
		if mapped[binding.Fold(c.Name)] || c.Nullable || c.Default {
			continue
		}
		err := &ValidationError{
			Table:    desc.Table,
			Column:   c.Name,
			Message:  "NOT NULL column without default is not mapped, inserts will fail",
			Breaking: true,
		}
		if cfg.allowUnmapped {
			result.Warnings = append(result.Warnings, err)
		} else {
			result.Errors = append(result.Errors, err)
		}
	}
	return result
}

func maxLen(rules []field.Rule) (int, bool) {
	for _, r := range rules {
		if r.Kind == field.KindMaxLen {
			return r.Max, true
		}
	}
	return 0, false
}

func hasRule(rules []field.Rule, kind field.RuleKind) bool {
	for _, r := range rules {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}
