package sql

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/syssam/lorm/dialect"
)

// DefaultSlowThreshold is the slow statement threshold of a StatsDriver.
const DefaultSlowThreshold = 100 * time.Millisecond

// StatementStats aggregates the runs of one statement text. Generated
// statements keep their named placeholders, so every run of the same
// operation on the same table shares one entry whatever its values.
type StatementStats struct {
	Text   string
	Calls  int64
	Errors int64
	Slow   int64
	Total  time.Duration
	Max    time.Duration
}

// Avg returns the mean duration of a run.
func (s StatementStats) Avg() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// Stats is a copy of the counters of a StatsDriver.
type Stats struct {
	Queries int64
	Execs   int64
	Errors  int64
	Slow    int64
	Total   time.Duration
	// Statements holds one entry per statement text, the most expensive
	// first.
	Statements []StatementStats
}

// Avg returns the mean duration of a statement.
func (s Stats) Avg() time.Duration {
	n := s.Queries + s.Execs
	if n == 0 {
		return 0
	}
	return s.Total / time.Duration(n)
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("queries=%d execs=%d errors=%d slow=%d total=%s avg=%s statements=%d",
		s.Queries, s.Execs, s.Errors, s.Slow, s.Total, s.Avg(), len(s.Statements))
}

// SlowStatement describes a run that exceeded the slow threshold.
type SlowStatement struct {
	Text     string
	Args     []NamedArg
	Duration time.Duration
	Err      error
	// TxID is the id of the enclosing transaction, if any.
	TxID string
}

// SlowHook is called after every slow run.
type SlowHook func(ctx context.Context, s SlowStatement)

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a run is slow.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowHook adds a callback for slow runs.
func WithSlowHook(hook SlowHook) StatsOption {
	return func(s *StatsDriver) {
		s.hooks = append(s.hooks, hook)
	}
}

// WithSlowLog logs slow runs at warn level, to slog.Default() if logger is
// nil.
func WithSlowLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowHook(func(ctx context.Context, s SlowStatement) {
		attrs := []slog.Attr{
			slog.Duration("duration", s.Duration),
			slog.String("statement", s.Text),
			argsAttr(s.Args),
		}
		if s.TxID != "" {
			attrs = append(attrs, slog.String("tx", s.TxID))
		}
		if s.Err != nil {
			attrs = append(attrs, slog.Any("error", s.Err))
		}
		logger.LogAttrs(ctx, slog.LevelWarn, "slow statement", attrs...)
	})
}

// StatsDriver wraps a Driver and aggregates the timings of the statements
// it runs, keyed by their named text.
type StatsDriver struct {
	dialect.Driver
	threshold time.Duration
	hooks     []SlowHook

	mu     sync.Mutex
	totals Stats
	byText map[string]*StatementStats
}

// NewStatsDriver wraps drv.
//
//	drv, _ := sql.Open(dialect.SQLite, "file:app.db")
//	sd := sql.NewStatsDriver(drv,
//		sql.WithSlowThreshold(200*time.Millisecond),
//		sql.WithSlowLog(nil),
//	)
//	client := lorm.NewClient(sd)
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	d := &StatsDriver{
		Driver:    drv,
		threshold: DefaultSlowThreshold,
		byText:    make(map[string]*StatementStats),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns a copy of the counters.
func (d *StatsDriver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.totals
	s.Statements = make([]StatementStats, 0, len(d.byText))
	for _, st := range d.byText {
		s.Statements = append(s.Statements, *st)
	}
	slices.SortFunc(s.Statements, func(a, b StatementStats) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Text, b.Text)
	})
	return s
}

// Reset clears the counters.
func (d *StatsDriver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.totals = Stats{}
	clear(d.byText)
}

// Exec runs a statement and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args []NamedArg) (Result, error) {
	start := time.Now()
	res, err := d.Driver.Exec(ctx, query, args)
	d.record(ctx, "", query, args, false, time.Since(start), err)
	return res, err
}

// Query runs a statement and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args []NamedArg) (Rows, error) {
	start := time.Now()
	rows, err := d.Driver.Query(ctx, query, args)
	d.record(ctx, "", query, args, true, time.Since(start), err)
	return rows, err
}

// Tx starts a transaction whose statements are recorded too.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

func (d *StatsDriver) record(ctx context.Context, txID, query string, args []NamedArg, rows bool, elapsed time.Duration, err error) {
	slow := elapsed > d.threshold
	d.mu.Lock()
	if rows {
		d.totals.Queries++
	} else {
		d.totals.Execs++
	}
	d.totals.Total += elapsed
	st, ok := d.byText[query]
	if !ok {
		st = &StatementStats{Text: query}
		d.byText[query] = st
	}
	st.Calls++
	st.Total += elapsed
	st.Max = max(st.Max, elapsed)
	if err != nil {
		d.totals.Errors++
		st.Errors++
	}
	if slow {
		d.totals.Slow++
		st.Slow++
	}
	d.mu.Unlock()
	if !slow {
		return
	}
	s := SlowStatement{Text: query, Args: args, Duration: elapsed, Err: err, TxID: txID}
	for _, hook := range d.hooks {
		hook(ctx, s)
	}
}

// StatsTx is a transaction of a StatsDriver.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// ID returns the id of the wrapped transaction.
func (tx *StatsTx) ID() string {
	return TxID(tx.Tx)
}

// Exec runs a statement within the transaction and records it.
func (tx *StatsTx) Exec(ctx context.Context, query string, args []NamedArg) (Result, error) {
	start := time.Now()
	res, err := tx.Tx.Exec(ctx, query, args)
	tx.driver.record(ctx, tx.ID(), query, args, false, time.Since(start), err)
	return res, err
}

// Query runs a statement within the transaction and records it.
func (tx *StatsTx) Query(ctx context.Context, query string, args []NamedArg) (Rows, error) {
	start := time.Now()
	rows, err := tx.Tx.Query(ctx, query, args)
	tx.driver.record(ctx, tx.ID(), query, args, true, time.Since(start), err)
	return rows, err
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
)
