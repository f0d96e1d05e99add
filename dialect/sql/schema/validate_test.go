package schema

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lorm/dialect/sql"
	binding "github.com/syssam/lorm/schema"
)

type users struct {
	Id        int `db:",pk"`
	FirstName string
	Surname   *string `db:",maxlen=30"`
	Email     *string `db:",notnull,maxlen=50"`
}

type readonly struct {
	Name string
}

func bind(t *testing.T, typ reflect.Type, table string) *binding.Descriptor {
	t.Helper()
	desc, err := binding.Bind(typ, []string{table}, binding.Table(table))
	require.NoError(t, err)
	return desc
}

func TestValidateBinding(t *testing.T) {
	desc := bind(t, reflect.TypeFor[users](), "users")

	t.Run("clean", func(t *testing.T) {
		result := ValidateBinding(desc, []sql.Column{
			{Name: "id", Default: true},
			{Name: "FIRSTNAME"},
			{Name: "surname", Nullable: true, Size: 30},
			{Name: "email", Size: 50},
			{Name: "created_at", Default: true},
		})
		assert.False(t, result.HasErrors(), result.String())
		assert.False(t, result.HasWarnings(), result.String())
		assert.NoError(t, result.Err())
		assert.Equal(t, "No issues found", result.String())
	})

	t.Run("mismatches", func(t *testing.T) {
		result := ValidateBinding(desc, []sql.Column{
			{Name: "Id", Default: true},
			{Name: "Surname", Size: 20},
			{Name: "Email", Size: 50},
			{Name: "Role_Id"},
		})
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "FirstName", result.Errors[0].Column)
		assert.Equal(t, "Role_Id", result.Errors[1].Column)
		assert.True(t, result.HasBreakingChanges())
		require.Error(t, result.Err())

		require.Len(t, result.Warnings, 2)
		assert.Contains(t, result.Warnings[0].Message, "exceeds column size 20")
		assert.Contains(t, result.Warnings[1].Message, "may be null")
		assert.Contains(t, result.String(), "[BREAKING]")
	})

	t.Run("no columns", func(t *testing.T) {
		result := ValidateBinding(desc, nil)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "users: table has no columns", result.Errors[0].Error())
	})
}

func TestValidateBinding_AllowUnmapped(t *testing.T) {
	desc := bind(t, reflect.TypeFor[readonly](), "report")
	columns := []sql.Column{{Name: "Name"}, {Name: "Total"}}

	result := ValidateBinding(desc, columns)
	require.Len(t, result.Errors, 1)
	require.Len(t, result.Warnings, 1, "missing primary key field")
	assert.True(t, result.Warnings[0].Breaking)

	result = ValidateBinding(desc, columns, AllowUnmapped())
	assert.False(t, result.HasErrors())
	assert.Len(t, result.Warnings, 2)
}
