package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the few places where the supported SQL engines differ:
// placeholder syntax, row locking and how a generated id is returned.
// Repositories write every statement with `?` placeholders.
type Dialect struct {
	name string
}

var (
	MySQL    = Dialect{name: "mysql"}
	Postgres = Dialect{name: "postgres"}
	SQLite   = Dialect{name: "sqlite3"}
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "mysql":
		return MySQL, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported dialect %q", driver)
}

func (d Dialect) Name() string { return d.name }

// Rebind rewrites `?` placeholders into `$1, $2, ...` for Postgres.  Question
// marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n, quoted := 0, false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			quoted = !quoted
			b.WriteByte(ch)
		case ch == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// ForUpdate returns the row-locking suffix for SELECT statements run inside a
// transaction.  SQLite locks the whole database on write and has no such
// clause.
func (d Dialect) ForUpdate() string {
	if d == SQLite {
		return ""
	}
	return " FOR UPDATE"
}

// likeEscape is the escape character used by ContainsPattern.  A backslash
// would need different quoting in MySQL and standard SQL string literals.
const likeEscape = '!'

// LikeEscapeClause must follow every `LIKE ?` whose argument comes from
// ContainsPattern.
const LikeEscapeClause = "ESCAPE '!'"

// ContainsPattern turns a user supplied filter into a LIKE pattern that
// matches it as a literal substring.
func ContainsPattern(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('%')
	for _, r := range s {
		if r == '%' || r == '_' || r == likeEscape {
			b.WriteRune(likeEscape)
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')
	return b.String()
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor runs statements against a pool or a transaction, rebinding
// placeholders for the configured dialect.
type Executor struct {
	q       Querier
	dialect Dialect
}

func (e Executor) Dialect() Dialect { return e.dialect }

func (e Executor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return e.q.ExecContext(ctx, e.dialect.Rebind(query), args...)
}

func (e Executor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return e.q.QueryContext(ctx, e.dialect.Rebind(query), args...)
}

func (e Executor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return e.q.QueryRowContext(ctx, e.dialect.Rebind(query), args...)
}

// InsertID executes an INSERT and returns the generated `id` column.
// Postgres has no LastInsertId, so the statement gets a RETURNING clause.
func (e Executor) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	if e.dialect == Postgres {
		var id int64
		if err := e.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Affected executes a statement and reports whether it matched any row.
func (e Executor) Affected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
