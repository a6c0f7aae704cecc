package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/crudtcc/incident-api/internal/config"
)

// DB is the process-wide connection pool together with the SQL dialect of
// the engine behind it.  Statements go through Executor or InTx so that
// placeholders are rebound consistently.
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// Open connects to the configured engine, applies the pool settings and
// verifies the connection.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	driverName, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Pool settings.  The pool is fixed size: when every connection is busy
	// callers wait in database/sql's queue, which has no length bound.
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}
	return &DB{sql: sqlDB, dialect: dialect}, nil
}

// New wraps an already opened pool.  Used by tests.
func New(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{sql: sqlDB, dialect: dialect}
}

func dataSource(cfg config.DatabaseConfig) (driverName, dsn string, err error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Pass
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		mc.DBName = cfg.Name
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		mc.ParseTime = true
		mc.Loc = time.UTC
		// RowsAffected counts matched rows so that an update that changes
		// nothing is not mistaken for a missing id.
		mc.ClientFoundRows = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return "mysql", mc.FormatDSN(), nil
	case config.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Pass),
			Host:     net.JoinHostPort(cfg.Host, cfg.Port),
			Path:     "/" + cfg.Name,
			RawQuery: "sslmode=disable",
		}
		if cfg.Pass == "" {
			u.User = url.User(cfg.User)
		}
		return "pgx", u.String(), nil
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return "", "", fmt.Errorf("creating database directory: %w", err)
		}
		// _txlock=immediate takes the write lock at BEGIN, so a transaction
		// that reads before writing waits on the busy timeout instead of
		// failing with "database is locked" on the lock upgrade.
		return "sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", cfg.Path), nil
	}
	return "", "", fmt.Errorf("unsupported driver %q", cfg.Driver)
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Executor runs statements directly on the pool; each call borrows a
// connection and returns it when the statement (or its rows) is done.
func (db *DB) Executor() Executor {
	return Executor{q: db.sql, dialect: db.dialect}
}

// InTx runs fn inside a transaction on one exclusively held connection.
// The transaction is committed when fn returns nil and rolled back when fn
// returns an error or panics; the connection goes back to the pool on every
// path.
func (db *DB) InTx(ctx context.Context, fn func(Executor) error) (err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(Executor{q: tx, dialect: db.dialect}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// HealthCheck verifies the database is reachable.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.sql.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics.
func (db *DB) Stats() sql.DBStats { return db.sql.Stats() }

// Close releases every pooled connection.
func (db *DB) Close() error {
	if db.sql == nil {
		return nil
	}
	return db.sql.Close()
}
