package lorm

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/syssam/lorm/config"
	"github.com/syssam/lorm/dialect"
	"github.com/syssam/lorm/dialect/sql"
	"github.com/syssam/lorm/schema"

	// Registers the database/sql drivers of every supported dialect.
	_ "github.com/syssam/lorm/dialect/sql/sqlerr"
)

// Client is the store session shared by the tables registered on it.
// It is not safe for concurrent use; callers running statements from
// several goroutines must serialize them.
type Client struct {
	driver   dialect.Driver
	logger   *slog.Logger
	bindOpts []schema.Option

	mu    *sync.Mutex
	bound map[reflect.Type]*schema.Descriptor
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger of the client. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithInflect enables the snake_case and plural fallbacks of table
// resolution for every record type registered on the client.
func WithInflect() Option {
	return func(c *Client) {
		c.bindOpts = append(c.bindOpts, schema.Inflect())
	}
}

// NewClient returns a client running statements on drv.
func NewClient(drv dialect.Driver, opts ...Option) *Client {
	c := &Client{
		driver: drv,
		logger: slog.Default(),
		mu:     &sync.Mutex{},
		bound:  make(map[reflect.Type]*schema.Descriptor),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens a client for the given dialect and data source name. No
// connection is kept idle: each statement acquires one and the pool closes
// it afterwards, while a transaction holds its own until it ends.
func Open(dialectName, dsn string, opts ...Option) (*Client, error) {
	return OpenConfig(&config.Config{Dialect: dialectName, DSN: dsn}, opts...)
}

// OpenConfig opens a client from a loaded configuration.
//
//	cfg, err := config.Load("lorm.yaml")
//	if err != nil {
//		return err
//	}
//	client, err := lorm.OpenConfig(cfg)
func OpenConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("lorm: invalid config: %w", err)
	}
	db, err := stdsql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("lorm: open %s: %w", cfg.Dialect, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.Inflect {
		opts = append([]Option{WithInflect()}, opts...)
	}
	c := NewClient(sql.OpenDB(cfg.Dialect, db), opts...)
	if cfg.SlowThreshold > 0 {
		c.driver = sql.NewStatsDriver(c.driver,
			sql.WithSlowThreshold(cfg.SlowThreshold),
			sql.WithSlowLog(c.logger),
		)
	}
	if cfg.Debug {
		c = c.Debug()
	}
	return c, nil
}

// Debug returns a client sharing the registrations of c that logs every
// statement at debug level.
func (c *Client) Debug() *Client {
	if _, ok := c.driver.(*sql.DebugDriver); ok {
		return c
	}
	cc := *c
	cc.driver = sql.NewDebugDriver(c.driver, c.logger)
	return &cc
}

// Driver returns the driver of the client.
func (c *Client) Driver() dialect.Driver {
	return c.driver
}

// Dialect returns the dialect name of the client.
func (c *Client) Dialect() string {
	return c.driver.Dialect()
}

// Close closes the underlying driver.
func (c *Client) Close() error {
	return c.driver.Close()
}

// Tables returns the table names reported by the store.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	return sql.Tables(ctx, c.driver)
}

// Exec runs a raw statement with named "@name" placeholders.
func (c *Client) Exec(ctx context.Context, query string, args ...sql.NamedArg) (sql.Result, error) {
	return c.session().exec(ctx, sql.Statement{Text: query, Args: args})
}

// Tx starts a transaction. Tables used through Table.WithTx run their
// statements on it until it is committed or rolled back.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("lorm: starting a transaction: %w", err)
	}
	return &Tx{tx: tx, client: c}, nil
}

// WithTx runs fn in a transaction, committing it if fn returns nil and
// rolling it back otherwise.
func (c *Client) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := c.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: %w", err, &RollbackError{Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lorm: committing transaction: %w", err)
	}
	return nil
}

// Register binds the record type T to a table of the store and returns
// its table handle. Registering the same type again returns a handle over
// the descriptor built the first time. Options given again are resolved
// against the store once more, and a different table fails with
// ErrBindingConflict.
//
//	users, err := lorm.Register[User](ctx, client)
//	if err != nil {
//		return err
//	}
//	err = users.Insert(ctx, User{FirstName: "Ada"})
func Register[T any](ctx context.Context, c *Client, opts ...schema.Option) (*Table[T], error) {
	typ := reflect.TypeFor[T]()
	desc, err := c.bind(ctx, typ, opts)
	if err != nil {
		return nil, err
	}
	return &Table[T]{desc: desc, client: c, s: c.session()}, nil
}

// Descriptor returns the descriptor of a registered record type.
func (c *Client) Descriptor(typ reflect.Type) (*schema.Descriptor, bool) {
	typ = indirectType(typ)
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.bound[typ]
	return d, ok
}

func (c *Client) bind(ctx context.Context, typ reflect.Type, opts []schema.Option) (*schema.Descriptor, error) {
	typ = indirectType(typ)
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.bound[typ]; ok {
		if len(opts) == 0 {
			return d, nil
		}
		again, err := c.resolve(ctx, typ, opts)
		if err != nil {
			return nil, err
		}
		if again.Table != d.Table {
			return nil, &SchemaBindingError{
				Type: typ.String(),
				Err:  fmt.Errorf("%w: registered on %s, options resolve %s", ErrBindingConflict, d.Table, again.Table),
			}
		}
		return d, nil
	}
	d, err := c.resolve(ctx, typ, opts)
	if err != nil {
		return nil, err
	}
	c.bound[typ] = d
	c.logger.DebugContext(ctx, "bound record type",
		"type", typ.String(),
		"table", d.Table,
		"primary_key", d.PrimaryKey,
		"fields", len(d.Fields),
	)
	return d, nil
}

// resolve binds typ against the current table list of the store.
func (c *Client) resolve(ctx context.Context, typ reflect.Type, opts []schema.Option) (*schema.Descriptor, error) {
	tables, err := c.Tables(ctx)
	if err != nil {
		return nil, &SchemaBindingError{Type: typ.String(), Err: err}
	}
	d, err := schema.Bind(typ, tables, append(append([]schema.Option(nil), c.bindOpts...), opts...)...)
	if err != nil {
		return nil, &SchemaBindingError{Type: typ.String(), Err: err}
	}
	return d, nil
}

func (c *Client) session() session {
	return session{conn: c.driver, dialect: c.driver.Dialect()}
}

func indirectType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}
