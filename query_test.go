package lorm_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lorm"
	"github.com/syssam/lorm/dialect/sql"
)

func TestQuery_Clause(t *testing.T) {
	users, _ := mockUsers(t)

	q := users.Query().
		Where("Role_Id").Equals(1).
		AndNot("surname").Equals("Test1")
	assert.Equal(t, "WHERE Role_Id = @Elm0 AND NOT surname = @Elm1", q.Clause())
	assert.Equal(t, []sql.NamedArg{sql.Named("Elm0", 1), sql.Named("Elm1", "Test1")}, q.Args())
	assert.Equal(t, "SELECT * FROM users WHERE Role_Id = @Elm0 AND NOT surname = @Elm1", q.SelectStatement().Text)
	assert.Equal(t, "DELETE FROM users WHERE Role_Id = @Elm0 AND NOT surname = @Elm1", q.DeleteStatement().Text)
}

func TestQuery_SelectStatement(t *testing.T) {
	users, _ := mockUsers(t)

	tests := []struct {
		name  string
		query *lorm.Query[Users]
		cols  []string
		want  string
	}{
		{
			name:  "empty",
			query: users.Query(),
			want:  "SELECT * FROM users",
		},
		{
			name:  "distinct columns",
			query: users.Query().Distinct(),
			cols:  []string{"Role_Id", "isReal"},
			want:  "SELECT DISTINCT Role_Id, isReal FROM users",
		},
		{
			name:  "join and group",
			query: users.Query().InnerJoin("roles ON roles.Id = users.Role_Id").GroupBy("Role_Id").Having("COUNT(*) > 1"),
			want:  "SELECT * FROM users INNER JOIN roles ON roles.Id = users.Role_Id GROUP BY Role_Id HAVING COUNT(*) > 1",
		},
		{
			name:  "null checks",
			query: users.Query().Where("Surname").IsNull().Or("FirstName").IsNotNull(),
			want:  "SELECT * FROM users WHERE Surname IS NULL OR FirstName IS NOT NULL",
		},
		{
			name:  "ranges",
			query: users.Query().Where("Id").Between(1, 9).And("Role_Id").In(1, 2, 3).OrderBy("Id").Limit(5).Offset(10),
			want:  "SELECT * FROM users WHERE Id BETWEEN @Elm0 AND @Elm1 AND Role_Id IN (@Elm2, @Elm3, @Elm4) ORDER BY Id LIMIT @Elm5 OFFSET @Elm6",
		},
		{
			name:  "comparisons",
			query: users.Query().Where("Id").GreaterThan(1).And("Id").LessThan(9).OrNot("Role_Id").GreaterThanOrEqual(2).Or("Role_Id").LessThanOrEqual(0).And("FirstName").Like("A%"),
			want:  "SELECT * FROM users WHERE Id > @Elm0 AND Id < @Elm1 OR NOT Role_Id >= @Elm2 OR Role_Id <= @Elm3 AND FirstName LIKE @Elm4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.SelectStatement(tt.cols...).Text)
		})
	}
}

func TestQuery_Select(t *testing.T) {
	ctx := context.Background()
	users, mock := mockUsers(t)

	mock.ExpectQuery("SELECT * FROM users WHERE Role_Id = ? AND NOT surname = ?").
		WithArgs(1, "Test1").
		WillReturnRows(sqlmock.NewRows([]string{"Id", "FirstName", "Surname"}).AddRow(1, "Ada", "Lovelace"))

	q := users.Query().Where("Role_Id").Equals(1).AndNot("surname").Equals("Test1")
	records, err := q.Select(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ada", records[0].FirstName)

	_, err = q.Select(ctx)
	assert.ErrorIs(t, err, lorm.ErrQueryConsumed)
	_, err = q.Delete(ctx)
	assert.ErrorIs(t, err, lorm.ErrQueryConsumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_Delete(t *testing.T) {
	ctx := context.Background()
	users, mock := mockUsers(t)

	mock.ExpectExec("DELETE FROM users WHERE Role_Id IN (?, ?)").
		WithArgs(4, 5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := users.Query().Where("Role_Id").In(4, 5).Delete(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_EmptyIn(t *testing.T) {
	ctx := context.Background()
	users, mock := mockUsers(t)

	_, err := users.Query().Where("Role_Id").In().Select(ctx)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
