// Package database opens the relational store shared by the rule, schedule and
// channel repositories. Postgres is used when a DATABASE_URL is configured,
// otherwise a local SQLite file.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql schema_postgres.sql
var schemaFS embed.FS

// Dialect selects placeholder style and schema.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB wraps *sql.DB with the dialect it was opened with.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open connects to databaseURL, or to the SQLite file at sqlitePath when
// databaseURL is empty, and applies the schema.
func Open(ctx context.Context, databaseURL, sqlitePath string) (*DB, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch {
	case strings.HasPrefix(databaseURL, "postgresql://"), strings.HasPrefix(databaseURL, "postgres://"):
		dialect = DialectPostgres
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, oops.In("database").With("dialect", dialect).Wrap(err)
		}
	case databaseURL == "":
		slog.Warn("DATABASE_URL not set, using local sqlite file", "path", sqlitePath)
		db, err = openSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		dialect = DialectSQLite
	default:
		return nil, oops.In("database").Errorf("unsupported database url scheme: %s", schemeOf(databaseURL))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.In("database").With("dialect", dialect).Wrap(err)
	}

	d := &DB{DB: db, dialect: dialect}
	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, oops.In("database").Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, oops.In("database").With("path", path).Wrap(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.In("database").With("path", path).Wrap(err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	return db, nil
}

func (d *DB) migrate(ctx context.Context) error {
	name := "schema_sqlite.sql"
	if d.dialect == DialectPostgres {
		name = "schema_postgres.sql"
	}
	b, err := schemaFS.ReadFile(name)
	if err != nil {
		return oops.In("database").With("schema", name).Wrap(err)
	}
	for _, stmt := range strings.Split(string(b), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return oops.In("database").With("schema", name).Wrap(err)
		}
	}
	return nil
}

// Dialect reports which driver backs the connection.
func (d *DB) Dialect() Dialect { return d.dialect }

// Rebind rewrites '?' placeholders into the dialect's style.
func (d *DB) Rebind(query string) string {
	return Rebind(d.dialect, query)
}

// Rebind rewrites '?' placeholders to $1..$n for Postgres.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func schemeOf(url string) string {
	if i := strings.Index(url, "://"); i > 0 {
		return url[:i]
	}
	return fmt.Sprintf("%.8q", url)
}
