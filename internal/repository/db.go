package repository

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/jobapply/internal/common"
)

type Config struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ConfigFrom maps the application database config onto the repository config.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		Driver:           c.Driver,
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// DB wraps the ent SQL driver. Statements are built with ent's dialect-aware
// builder and run either on the pool or on the transaction bound to the context.
type DB struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
	logger  *slog.Logger
}

// Connect opens the backend selected by cfg.Driver.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	switch cfg.Driver {
	case "", "postgres":
		return Open(ctx, cfg, logger)
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open creates a pgx pool and wraps it for ent.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "jobapply"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for ent
	sqlDB := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, sqlDB)

	logger.Info("successfully connected to database")
	return &DB{drv: drv, pool: pool, dialect: dialect.Postgres, logger: logger}, nil
}

// OpenSQLite opens a modernc SQLite database. A single connection is used so
// write transactions serialize instead of failing with SQLITE_BUSY.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)"
	}
	logger.Info("connecting to database", "driver", "sqlite")
	sqlDB, err := stdsql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		logger.Error("failed to ping sqlite database", "error", err)
		return nil, err
	}
	drv := entsql.OpenDB(dialect.SQLite, sqlDB)
	return &DB{drv: drv, dialect: dialect.SQLite, logger: logger}, nil
}

// Close closes the database connections gracefully
func (db *DB) Close() {
	db.logger.Info("closing database connections")
	if err := db.drv.Close(); err != nil {
		db.logger.Error("failed to close ent driver", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	db.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if db.pool != nil {
		err = db.pool.Ping(ctx)
	} else {
		err = db.drv.DB().PingContext(ctx)
	}
	if err != nil {
		db.logger.Warn("database ping failed", "error", err)
		return err
	}
	db.logger.Debug("database ping successful")
	return nil
}

// Dialect returns the ent dialect name of the backend.
func (db *DB) Dialect() string { return db.dialect }

// Driver exposes the ent driver for schema migration.
func (db *DB) Driver() *entsql.Driver { return db.drv }

type txKey struct{}

// WithTx runs fn inside a transaction bound to the returned context. Nested
// calls join the outer transaction.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(dialect.Tx); ok {
		return fn(ctx)
	}
	tx, err := db.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			db.logger.Warn("tx rollback failed", "error", rerr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (db *DB) conn(ctx context.Context) dialect.ExecQuerier {
	if tx, ok := ctx.Value(txKey{}).(dialect.Tx); ok {
		return tx
	}
	return db.drv
}

func (db *DB) builder() *entsql.DialectBuilder {
	return entsql.Dialect(db.dialect)
}

// forUpdate adds a row lock where the backend supports one. SQLite serializes
// writers on the database file instead.
func (db *DB) forUpdate(s *entsql.Selector) *entsql.Selector {
	if db.dialect == dialect.Postgres {
		return s.ForUpdate()
	}
	return s
}

func (db *DB) exec(ctx context.Context, q entsql.Querier) (int64, error) {
	query, args := q.Query()
	var res stdsql.Result
	if err := db.conn(ctx).Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", common.ErrDatabase, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryAll runs q and maps every row through scan.
func queryAll[T any](ctx context.Context, db *DB, q entsql.Querier, scan func(rowScanner) (T, error)) ([]T, error) {
	query, args := q.Query()
	var rows entsql.Rows
	if err := db.conn(ctx).Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", common.ErrDatabase, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// queryOne returns the first row of q or an error wrapping common.ErrNotFound.
func queryOne[T any](ctx context.Context, db *DB, q entsql.Querier, what string, scan func(rowScanner) (T, error)) (T, error) {
	var zero T
	out, err := queryAll(ctx, db, q, scan)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, common.NewAppError("NOT_FOUND", what+" not found", common.ErrNotFound)
	}
	return out[0], nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}

func now() time.Time { return time.Now().UTC() }

// deref unwraps optional columns so drivers only see plain values or nil.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
