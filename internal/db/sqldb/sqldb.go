// Package sqldb opens the relational bookmark store (PostgreSQL or SQLite)
// behind one database/sql handle.
package sqldb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

// Dialect selects the SQL flavour and driver.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// PoolConfig controls connection reuse. Enabled=false keeps a single
// connection open and closes it when idle.
type PoolConfig struct {
	Enabled         bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Config holds database connection configuration.
type Config struct {
	Dialect Dialect
	DSN     string
	Pool    PoolConfig
}

// DefaultPool returns the pooled defaults.
func DefaultPool() PoolConfig {
	return PoolConfig{
		Enabled:         true,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

// DB wraps a sql.DB with the dialect it talks.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open creates the handle and applies pool settings. It does not wait for
// the server; use WaitForReady.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	dsn := cfg.DSN
	switch cfg.Dialect {
	case Postgres:
	case SQLite:
		dsn = EnsurePragmas(dsn, true, 5000)
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", cfg.Dialect)
	}

	sqlDB, err := sql.Open(string(cfg.Dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyPool(sqlDB, cfg)

	return &DB{DB: sqlDB, dialect: cfg.Dialect}, nil
}

func applyPool(sqlDB *sql.DB, cfg Config) {
	// Every connection to an in-memory sqlite database sees its own empty
	// database, so exactly one must stay open.
	if cfg.Dialect == SQLite && isMemory(cfg.DSN) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}

	p := cfg.Pool
	if !p.Enabled {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(0)
		return
	}
	sqlDB.SetMaxOpenConns(p.MaxOpenConns)
	sqlDB.SetMaxIdleConns(p.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(p.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(p.ConnMaxIdleTime)
}

// Dialect returns the SQL flavour of this handle.
func (db *DB) Dialect() Dialect { return db.dialect }

// InitSchema creates tables and indexes. Idempotent.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := postgresSchema
	if db.dialect == SQLite {
		schema = sqliteSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
	}
	return nil
}

// Ping checks if the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (db *DB) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := db.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close closes the database handle.
func (db *DB) Close() {
	_ = db.DB.Close()
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
func (db *DB) Rebind(query string) string {
	return Rebind(db.dialect, query)
}

// Rebind rewrites '?' placeholders into $1..$n for postgres.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isMemory(dsn string) bool {
	lower := strings.ToLower(dsn)
	return lower == ":memory:" || strings.HasPrefix(lower, "file::memory:") || strings.Contains(lower, "mode=memory")
}

// EnsurePragmas appends SQLite pragmas to the DSN when missing.
// It is a no-op for in-memory databases.
func EnsurePragmas(dsn string, wal bool, busyTimeoutMS int) string {
	if dsn == "" || isMemory(dsn) {
		return dsn
	}
	lower := strings.ToLower(dsn)
	if wal && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, "journal_mode(WAL)")
	}
	if busyTimeoutMS > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	return dsn
}

func addPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}
