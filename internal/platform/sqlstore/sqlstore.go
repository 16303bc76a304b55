package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the pgx driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// Dialect selects the database backend.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrUnsupportedDialect is returned by Open for an unknown dialect.
var ErrUnsupportedDialect = errors.New("unsupported database dialect")

// DefaultMaxAttempts is how often RunInTx runs a transaction that keeps
// failing with a serialization conflict.
const DefaultMaxAttempts = 3

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, d)
}

// Config holds connection settings.
type Config struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MaxAttempts     int
}

// Store is a store.TxRunner backed by a SQL database.
type Store struct {
	db          *sqlx.DB
	dialect     Dialect
	txOpts      *sql.TxOptions
	maxAttempts int
	logger      *slog.Logger
}

var _ store.TxRunner = (*Store)(nil)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	driver, err := cfg.Dialect.driverName()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	dsn := cfg.DSN
	if cfg.Dialect == DialectSQLite {
		dsn = withPragmas(dsn, "foreign_keys(1)", "busy_timeout(5000)")
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var txOpts *sql.TxOptions
	switch cfg.Dialect {
	case DialectSQLite:
		// One writer at a time; an in-memory database also lives only as
		// long as its connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	case DialectPostgres:
		txOpts = &sql.TxOptions{Isolation: sql.LevelSerializable}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	log.Info("database connection established",
		slog.String("dialect", string(cfg.Dialect)))

	return &Store{
		db:          db,
		dialect:     cfg.Dialect,
		txOpts:      txOpts,
		maxAttempts: maxAttempts,
		logger:      log.With(slog.String("component", "sqlstore")),
	}, nil
}

func withPragmas(dsn string, pragmas ...string) string {
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// Dialect returns the backend in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stores implements store.TxRunner. The returned stores run each call on
// its own and must not be used inside RunInTx callbacks.
func (s *Store) Stores() store.Stores {
	return s.bind(s.db)
}

// RunInTx implements store.TxRunner. A transaction aborted by a
// serialization conflict is run again, up to the configured attempts.
func (s *Store) RunInTx(ctx context.Context, fn store.TxFn) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = store.RunInTransaction(ctx, s.db, s.txOpts, func(ctx context.Context, tx *sqlx.Tx) error {
			return fn(ctx, s.bind(tx))
		})
		if err == nil {
			return nil
		}
		err = MapError(err)
		if !store.IsRetryableError(err) || ctx.Err() != nil {
			return err
		}
		log.Warn("retrying transaction after serialization conflict",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}
	return err
}

func (s *Store) bind(db store.DBTX) store.Stores {
	q := querier{db: db, dialect: s.dialect}
	return store.Stores{
		Items:       &itemStore{q},
		Collections: &collectionStore{q},
		Ledger:      &ledgerStore{q},
		Settings:    &settingsStore{q},
	}
}

// querier runs rebound queries on a connection or transaction.
type querier struct {
	db      store.DBTX
	dialect Dialect
}

// forUpdate appends a row lock clause where the dialect supports one.
func (q querier) forUpdate(query string) string {
	if q.dialect == DialectPostgres {
		return query + " FOR UPDATE"
	}
	return query
}

func (q querier) get(ctx context.Context, dest any, query string, args ...any) error {
	return MapError(sqlx.GetContext(ctx, q.db, dest, q.db.Rebind(query), args...))
}

func (q querier) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return MapError(sqlx.SelectContext(ctx, q.db, dest, q.db.Rebind(query), args...))
}

func (q querier) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := q.db.ExecContext(ctx, q.db.Rebind(query), args...)
	return res, MapError(err)
}

// utc normalises times so that SQLite's text timestamps compare in order.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
