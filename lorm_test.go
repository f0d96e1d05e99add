package lorm_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lorm"
	"github.com/syssam/lorm/config"
	"github.com/syssam/lorm/dialect"
	"github.com/syssam/lorm/dialect/sql"
	"github.com/syssam/lorm/dialect/sql/sqlerr"
)

type Account struct {
	ID        int64
	Name      string  `db:",notnull"`
	Email     *string `db:"email,maxlen=30"`
	Balance   float64
	Active    bool
	CreatedAt *time.Time `db:"created_at"`
	Note      string     `db:"-"`
}

const accountsDDL = `CREATE TABLE accounts (
	ID INTEGER PRIMARY KEY,
	Name TEXT NOT NULL,
	email TEXT UNIQUE,
	Balance REAL NOT NULL DEFAULT 0,
	Active BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

func openSQLite(t *testing.T, opts ...lorm.Option) *lorm.Client {
	t.Helper()
	client, err := lorm.Open(dialect.SQLite, filepath.Join(t.TempDir(), "lorm.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	_, err = client.Exec(context.Background(), accountsDDL)
	require.NoError(t, err)
	return client
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := openSQLite(t, lorm.WithInflect())

	tables, err := client.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts"}, tables)

	accounts, err := lorm.Register[Account](ctx, client)
	require.NoError(t, err)
	assert.Equal(t, "accounts", accounts.Name())

	email := "ada@example.com"
	require.NoError(t, accounts.Insert(ctx, Account{Name: "ada", Email: &email, Balance: 10.5, Active: true}))
	require.NoError(t, accounts.BulkInsert(ctx, []Account{
		{Name: "alan", Balance: 3},
		{Name: "grace", Balance: 7},
	}))

	n, err := accounts.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	ada, err := accounts.GetElementByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ada", ada.Name)
	require.NotNil(t, ada.Email)
	assert.Equal(t, email, *ada.Email)
	assert.Equal(t, 10.5, ada.Balance)
	assert.True(t, ada.Active)
	assert.NotNil(t, ada.CreatedAt, "store default applies to omitted null fields")

	latest, err := accounts.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "grace", latest.Name)
	assert.Nil(t, latest.Email)

	page, err := accounts.GetPage(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "grace", page[0].Name)

	active, err := accounts.Fetch(ctx, map[string]any{"active": true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.EqualValues(t, 1, active[0].ID)

	unmailed, err := accounts.Fetch(ctx, struct{ Email *string }{})
	require.NoError(t, err)
	assert.Len(t, unmailed, 2)

	rich, err := accounts.Query().Where("Balance").GreaterThan(5).OrderBy("ID DESC").Select(ctx)
	require.NoError(t, err)
	require.Len(t, rich, 2)
	assert.Equal(t, "grace", rich[0].Name)
	assert.Equal(t, "ada", rich[1].Name)

	ada.Email = nil
	ada.Balance = 0
	affected, err := accounts.Update(ctx, ada)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	ada, err = accounts.GetElementByID(ctx, int64(1))
	require.NoError(t, err)
	assert.Nil(t, ada.Email, "updates write null fields")
	assert.Zero(t, ada.Balance)

	affected, err = accounts.Delete(ctx, Account{ID: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	_, err = accounts.GetElementByID(ctx, 2)
	assert.True(t, lorm.IsNotFound(err))

	raw, err := accounts.ExecuteQuery(ctx, "SELECT ID, Name FROM accounts WHERE Name = @name", sql.Named("name", "grace"))
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.EqualValues(t, 3, raw[0].ID)

	aliased, err := accounts.ExecuteQuery(ctx, "SELECT ID, Name, 'second' AS name FROM accounts WHERE ID = @id", sql.Named("id", 3))
	require.NoError(t, err)
	require.Len(t, aliased, 1)
	assert.Equal(t, "second", aliased[0].Name)

	removed, err := accounts.Query().Where("Balance").LessThan(1).Delete(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func TestSQLite_Constraints(t *testing.T) {
	ctx := context.Background()
	client := openSQLite(t, lorm.WithInflect())
	accounts, err := lorm.Register[Account](ctx, client)
	require.NoError(t, err)

	email := "dup@example.com"
	require.NoError(t, accounts.Insert(ctx, Account{Name: "a", Email: &email}))

	err = accounts.Insert(ctx, Account{Name: "b", Email: &email})
	require.Error(t, err)
	assert.True(t, lorm.IsStatementExecutionError(err))
	assert.True(t, lorm.IsConstraintError(err))
	assert.True(t, sqlerr.IsUniqueConstraintError(err))

	long := "someone-with-a-long-name@example.com"
	err = accounts.Insert(ctx, Account{Name: "c", Email: &long})
	assert.True(t, lorm.IsValidationError(err))

	n, err := accounts.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSQLite_WithTx(t *testing.T) {
	ctx := context.Background()
	client := openSQLite(t, lorm.WithInflect())
	accounts, err := lorm.Register[Account](ctx, client)
	require.NoError(t, err)

	abort := errors.New("abort")
	err = client.WithTx(ctx, func(tx *lorm.Tx) error {
		if err := accounts.WithTx(tx).Insert(ctx, Account{Name: "ghost"}); err != nil {
			return err
		}
		return abort
	})
	assert.ErrorIs(t, err, abort)

	err = client.WithTx(ctx, func(tx *lorm.Tx) error {
		return accounts.WithTx(tx).BulkInsert(ctx, []Account{{Name: "x"}, {Name: "y"}})
	})
	require.NoError(t, err)

	n, err := accounts.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSQLite_StatementsDuringTx(t *testing.T) {
	ctx := context.Background()
	client := openSQLite(t, lorm.WithInflect())
	accounts, err := lorm.Register[Account](ctx, client)
	require.NoError(t, err)
	_, err = client.Exec(ctx, "CREATE TABLE ledger (ID INTEGER PRIMARY KEY, Amount REAL)")
	require.NoError(t, err)

	type Ledger struct {
		ID     int64
		Amount float64
	}
	err = client.WithTx(ctx, func(tx *lorm.Tx) error {
		require.NoError(t, accounts.WithTx(tx).Insert(ctx, Account{Name: "pending"}))

		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_, err := accounts.Count(cctx)
		require.NoError(t, err, "statements outside the transaction must not wait for it")
		_, err = lorm.Register[Ledger](cctx, client)
		require.NoError(t, err)
		_, err = client.Exec(cctx, "SELECT 1")
		return err
	})
	require.NoError(t, err)

	n, err := accounts.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOpenConfig(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, err := lorm.OpenConfig(&config.Config{
		Dialect:       dialect.SQLite,
		DSN:           filepath.Join(t.TempDir(), "config.db"),
		Debug:         true,
		SlowThreshold: time.Hour,
		Inflect:       true,
	}, lorm.WithLogger(logger))
	require.NoError(t, err)
	defer client.Close()

	_, ok := client.Driver().(*sql.DebugDriver)
	assert.True(t, ok)
	assert.Equal(t, dialect.SQLite, client.Dialect())

	_, err = client.Exec(ctx, accountsDDL)
	require.NoError(t, err)
	_, err = lorm.Register[Account](ctx, client)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "CREATE TABLE accounts")
	assert.Contains(t, buf.String(), "bound record type")

	_, err = lorm.OpenConfig(&config.Config{Dialect: "oracle", DSN: "x"})
	require.Error(t, err)
}

func TestClient_Debug(t *testing.T) {
	client := openSQLite(t)
	debug := client.Debug()
	assert.NotSame(t, client, debug)
	assert.Same(t, debug, debug.Debug())
	_, ok := debug.Driver().(*sql.DebugDriver)
	assert.True(t, ok)
}

func TestSQLite_CheckBinding(t *testing.T) {
	ctx := context.Background()
	client := openSQLite(t, lorm.WithInflect())
	accounts, err := lorm.Register[Account](ctx, client)
	require.NoError(t, err)

	result, err := accounts.CheckBinding(ctx)
	require.NoError(t, err)
	assert.False(t, result.HasErrors(), result.String())

	type Ledger struct {
		ID     int64
		Amount float64
	}
	_, err = client.Exec(ctx, "CREATE TABLE ledger (ID INTEGER PRIMARY KEY, Amount REAL NOT NULL, Account INTEGER NOT NULL)")
	require.NoError(t, err)
	ledger, err := lorm.Register[Ledger](ctx, client)
	require.NoError(t, err)

	result, err = ledger.CheckBinding(ctx)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Account", result.Errors[0].Column)
}
