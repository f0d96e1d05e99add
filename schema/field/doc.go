// Package field provides the validation rules that can be attached to the
// fields of a mapped record type.
//
// Rules are declared through the `db` struct tag and are resolved once, when
// the record type is bound to its table:
//
//	type User struct {
//	    ID      int     `db:",pk"`
//	    Surname string  `db:",notnull"`
//	    Email   *string `db:"email,maxlen=50"`
//	}
//
// # Rules
//
// Two rules are supported:
//
//   - NotNull: the field value must not be null.
//   - MaxLen(n): a text value must not be longer than n characters.
//
// A rule is a pure function of the field's current value. It never mutates
// the record and reports a failure through its returned error:
//
//	err := field.MaxLen(3).Validate(reflect.ValueOf("abcd"))
//	errors.Is(err, field.ErrTooLong) // true
//
// # Null values
//
// Go has no universal null. A value is treated as null when it is a nil
// pointer, interface, map or slice, or when it implements driver.Valuer and
// reports a nil value (sql.NullString{}, sql.NullInt64{}, ...). IsNull exposes
// that definition so that statement generation and validation agree on it.
package field
