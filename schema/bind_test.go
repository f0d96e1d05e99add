package schema_test

import (
	"reflect"
	"testing"

	"github.com/syssam/lorm/schema"
	"github.com/syssam/lorm/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Users struct {
	Id           int `db:",pk"`
	FirstName    string
	Surname      *string `db:",notnull"`
	Email        *string `db:",maxlen=50"`
	Phone_Number string
	Role_Id      int
	Password     string `db:",notnull,maxlen=8"`
	Realtable    bool   `db:"isReal"`
	Ignored      string `db:"-"`
	internal     string
}

type Orders struct {
	ID     int64
	UserId int
}

type Audit struct {
	CreatedBy string `db:"created_by"`
}

type Invoice struct {
	Audit
	Number string
}

type customName struct {
	Key int `db:"key,pk"`
}

func (customName) TableName() string { return "Legacy_Table" }

type LineItem struct {
	ID int
}

func TestBind(t *testing.T) {
	t.Parallel()

	desc, err := schema.Bind(reflect.TypeOf(Users{}), []string{"orders", "USERS", "users"})
	require.NoError(t, err)

	assert.Equal(t, "USERS", desc.Table, "first case-insensitive match wins, spelled as the store reports it")
	assert.Equal(t, "Id", desc.PrimaryKey)
	assert.Equal(t, "Id", desc.PrimaryKeyColumn())
	assert.Equal(t, map[string]string{"Realtable": "isReal"}, desc.Aliases())
	assert.Equal(t, []field.Rule{field.NotNull()}, desc.Rules("Surname"))
	assert.Equal(t, []field.Rule{field.NotNull(), field.MaxLen(8)}, desc.Rules("Password"))
	assert.Equal(t, []field.Rule{field.MaxLen(50)}, desc.Rules("Email"))
	assert.Nil(t, desc.Rules("FirstName"))

	var names []string
	for _, f := range desc.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Id", "FirstName", "Surname", "Email", "Phone_Number", "Role_Id", "Password", "Realtable"}, names)

	var writable []string
	for _, f := range desc.Writable() {
		writable = append(writable, f.Column)
	}
	assert.Equal(t, []string{"FirstName", "Surname", "Email", "Phone_Number", "Role_Id", "Password", "isReal"}, writable)
}

func TestBind_Lookups(t *testing.T) {
	t.Parallel()

	desc, err := schema.Bind(reflect.TypeOf(&Users{}), []string{"users"})
	require.NoError(t, err)

	assert.Equal(t, "isReal", desc.Column("Realtable"))
	assert.Equal(t, "isReal", desc.Column("realtable"))
	assert.Equal(t, "Role_Id", desc.Column("Role_Id"))
	assert.Equal(t, "unknown", desc.Column("unknown"))

	f := desc.FieldByColumn("ISREAL")
	require.NotNil(t, f)
	assert.Equal(t, "Realtable", f.Name)
	assert.Nil(t, desc.FieldByColumn("Realtable"), "aliased fields are matched by their column only")

	aliases := desc.Aliases()
	aliases["FirstName"] = "x"
	assert.Equal(t, "FirstName", desc.Column("FirstName"), "Aliases returns a copy")
}

func TestBind_DefaultPrimaryKey(t *testing.T) {
	t.Parallel()

	desc, err := schema.Bind(reflect.TypeOf(Orders{}), []string{"Orders"})
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultPrimaryKey, desc.PrimaryKey)
	require.NotNil(t, desc.PrimaryKeyField())
	assert.Equal(t, "ID", desc.PrimaryKeyField().Name)
	assert.Len(t, desc.Writable(), 1)

	desc, err = schema.Bind(reflect.TypeOf(Invoice{}), []string{"invoice"})
	require.NoError(t, err)
	assert.Equal(t, "ID", desc.PrimaryKey)
	assert.Nil(t, desc.PrimaryKeyField(), "the default key is not verified at bind time")
	assert.Len(t, desc.Writable(), 2)
}

func TestBind_Embedded(t *testing.T) {
	t.Parallel()

	desc, err := schema.Bind(reflect.TypeOf(Invoice{}), []string{"invoice"})
	require.NoError(t, err)
	require.Len(t, desc.Fields, 2)
	assert.Equal(t, "CreatedBy", desc.Fields[0].Name)
	assert.Equal(t, "created_by", desc.Fields[0].Column)
	assert.Equal(t, []int{0, 0}, desc.Fields[0].Index)

	inv := Invoice{Audit: Audit{CreatedBy: "root"}, Number: "F-1"}
	assert.Equal(t, "root", desc.Fields[0].Value(reflect.ValueOf(inv)).String())
}

func TestBind_TableOverride(t *testing.T) {
	t.Parallel()

	desc, err := schema.Bind(reflect.TypeOf(customName{}), []string{"legacy_table"})
	require.NoError(t, err)
	assert.Equal(t, "legacy_table", desc.Table)
	assert.Equal(t, "Key", desc.PrimaryKey)
	assert.Equal(t, "key", desc.PrimaryKeyColumn())

	desc, err = schema.Bind(reflect.TypeOf(customName{}), []string{"other"}, schema.Table("OTHER"))
	require.NoError(t, err)
	assert.Equal(t, "other", desc.Table)
}

func TestBind_Inflect(t *testing.T) {
	t.Parallel()

	_, err := schema.Bind(reflect.TypeOf(LineItem{}), []string{"line_items"})
	require.ErrorIs(t, err, schema.ErrNoTable)

	desc, err := schema.Bind(reflect.TypeOf(LineItem{}), []string{"line_items"}, schema.Inflect())
	require.NoError(t, err)
	assert.Equal(t, "line_items", desc.Table)

	desc, err = schema.Bind(reflect.TypeOf(LineItem{}), []string{"line_item", "line_items"}, schema.Inflect())
	require.NoError(t, err)
	assert.Equal(t, "line_item", desc.Table, "snake_case is tried before the plural")
}

func TestBind_Errors(t *testing.T) {
	t.Parallel()

	_, err := schema.Bind(reflect.TypeOf(Users{}), []string{"orders"})
	require.ErrorIs(t, err, schema.ErrNoTable)
	assert.Contains(t, err.Error(), `"Users"`)

	_, err = schema.Bind(reflect.TypeOf(Users{}), nil)
	require.ErrorIs(t, err, schema.ErrNoTable)

	_, err = schema.Bind(reflect.TypeOf(42), []string{"int"})
	require.ErrorIs(t, err, schema.ErrNotStruct)

	type badLen struct {
		Name string `db:",maxlen=abc"`
	}
	_, err = schema.Bind(reflect.TypeOf(badLen{}), []string{"badLen"})
	require.ErrorContains(t, err, `invalid maxlen "abc"`)

	type badOpt struct {
		Name string `db:",unique"`
	}
	_, err = schema.Bind(reflect.TypeOf(badOpt{}), []string{"badOpt"})
	require.ErrorContains(t, err, `unknown option "unique"`)
}

func TestFold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, schema.Fold("ISREAL"), schema.Fold("isReal"))
	assert.Equal(t, schema.Fold("ÉCOLE"), schema.Fold("école"))
	assert.NotEqual(t, schema.Fold("users"), schema.Fold("user"))
}
