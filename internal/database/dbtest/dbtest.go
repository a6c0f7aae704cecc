// Package dbtest provides a SQLite database carrying the full schema for
// repository and handler tests.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/crudtcc/incident-api/internal/database"
)

// FailingCargo makes any insert into administradores abort.  Tests use it
// to force a failure in the middle of a user transaction.
const FailingCargo = "__reject__"

// Schema mirrors the production tables.  Extension rows reference users
// without ON DELETE CASCADE so that deletion order matters.
const Schema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT,
	telefone TEXT
);

CREATE TABLE professores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE,
	disciplina TEXT,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE administradores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE,
	cargo TEXT,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TRIGGER administradores_reject BEFORE INSERT ON administradores
WHEN NEW.cargo = '` + FailingCargo + `'
BEGIN
	SELECT RAISE(ABORT, 'administrator rejected');
END;

CREATE TABLE salas (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	bloco TEXT,
	numero TEXT
);

CREATE TABLE incidentes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	users_id INTEGER NOT NULL,
	sala_id INTEGER NOT NULL,
	titulo TEXT,
	descricao TEXT,
	data_hora DATETIME,
	status TEXT,
	FOREIGN KEY (users_id) REFERENCES users(id),
	FOREIGN KEY (sala_id) REFERENCES salas(id)
);

CREATE TABLE dispositivos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sala_id INTEGER NOT NULL,
	name TEXT,
	localizacao TEXT,
	descricao TEXT,
	FOREIGN KEY (sala_id) REFERENCES salas(id)
);

CREATE TABLE incidentes_dispositivos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	incidentes_id INTEGER NOT NULL,
	dispositivos_id INTEGER NOT NULL,
	descricao TEXT,
	FOREIGN KEY (incidentes_id) REFERENCES incidentes(id),
	FOREIGN KEY (dispositivos_id) REFERENCES dispositivos(id)
);
`

// Open creates a temporary SQLite database with Schema applied and a single
// connection.  The file is removed when the test completes.
func Open(tb testing.TB) *database.DB {
	tb.Helper()
	return OpenPool(tb, 1)
}

// OpenPool is Open with a pool of conns connections, for tests that write
// concurrently.  Transactions begin IMMEDIATE as in production.
func OpenPool(tb testing.TB, conns int) *database.DB {
	tb.Helper()

	f, err := os.CreateTemp("", "incident-api-test-*.db")
	if err != nil {
		tb.Fatalf("creating temp db: %v", err)
	}
	path := f.Name()
	f.Close()
	tb.Cleanup(func() { os.Remove(path) })

	sqlDB, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		tb.Fatalf("opening test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	tb.Cleanup(func() { sqlDB.Close() })

	if _, err := sqlDB.Exec(Schema); err != nil {
		tb.Fatalf("applying schema: %v", err)
	}
	return database.New(sqlDB, database.SQLite)
}

// Count returns the number of rows in table matching where.  The table name
// is trusted test input.
func Count(tb testing.TB, db *database.DB, table, where string, args ...any) int {
	tb.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.Executor().QueryRowContext(context.Background(), q, args...).Scan(&n); err != nil {
		tb.Fatalf("counting %s: %v", table, err)
	}
	return n
}
