// Package schema binds Go record types to the tables of a relational store.
//
// Binding reads the record type once, resolves it against the table names the
// store reports, and produces an immutable [Descriptor]. Statement generation
// and result hydration consult the descriptor afterwards; the record type is
// never reflected over for metadata again.
//
// # Quick Start
//
//	type Users struct {
//	    Id        int    `db:",pk"`
//	    FirstName string
//	    Surname   *string `db:",notnull"`
//	    Email     string  `db:",maxlen=50"`
//	    Realtable bool    `db:"isReal"`
//	}
//
//	desc, err := schema.Bind(reflect.TypeOf(Users{}), []string{"users", "orders"})
//	if err != nil {
//	    // errors.Is(err, schema.ErrNoTable) when no table matches.
//	}
//	desc.Table                  // "users"
//	desc.PrimaryKey             // "Id"
//	desc.Column("Realtable")    // "isReal"
//
// # Struct Tags
//
// Field metadata lives in the `db` tag. The first element is the column
// alias; an empty alias keeps the field name. The remaining elements are
// options:
//
//	`db:"isReal"`              // column alias
//	`db:",pk"`                 // primary key marker
//	`db:",notnull"`            // field.NotNull rule
//	`db:"mail,maxlen=50"`      // alias plus field.MaxLen(50) rule
//	`db:"-"`                   // not mapped
//
// Rules are attached in the order they are declared. Unexported fields are
// ignored and anonymous embedded structs are flattened into their parent.
//
// # Table Resolution
//
// The candidate name is, in order of precedence, the [Table] option, the
// record type's TableName method, and the type name. It is compared with the
// store's tables using Unicode case folding; the first match wins and the
// store's own spelling is kept. With the [Inflect] option, the snake_case and
// plural forms of the name are tried when the plain name does not match.
//
// # Primary Key
//
// The first field tagged "pk" is the primary key. Without a marker, the
// literal name "ID" is used. The key is not looked up at bind time; a record
// without such a field fails later, when an update or delete needs its value.
package schema
