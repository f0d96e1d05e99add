// Package lorm maps plain Go structs to relational tables and translates
// typed operations into parameterized SQL.
//
// # Records
//
// A record is a struct whose exported fields map to columns. The "db" tag
// renames a column and attaches rules:
//
//	type User struct {
//		Id        int     `db:",pk"`
//		FirstName string
//		Surname   *string `db:",notnull"`
//		Email     *string `db:",maxlen=50"`
//		Realtable bool    `db:"isReal"`
//		Scratch   string  `db:"-"`
//	}
//
// The table is the struct name, or the result of a TableName method,
// compared case-insensitively with the tables of the store. The primary
// key is the field tagged "pk", or the field named "ID".
//
// # Statements
//
// Register binds a record type once and returns its Table:
//
//	client, err := lorm.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	users, err := lorm.Register[User](ctx, client)
//	if err != nil {
//		return err
//	}
//	if err := users.Insert(ctx, User{FirstName: "Ada"}); err != nil {
//		return err
//	}
//	page, err := users.GetPage(ctx, 1, 10)
//
// Rules run before any statement is built; a failing record returns a
// *ValidationError and nothing is sent to the store.
//
// # Fluent queries
//
//	admins, err := users.Query().
//		Where("Role_Id").Equals(1).
//		OrderBy("FirstName").
//		Select(ctx)
//
// # Transactions
//
//	err := client.WithTx(ctx, func(tx *lorm.Tx) error {
//		_, err := users.WithTx(tx).Update(ctx, u)
//		return err
//	})
package lorm
