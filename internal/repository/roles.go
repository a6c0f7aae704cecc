package repository

import (
	"context"
	"fmt"

	"github.com/crudtcc/incident-api/internal/database"
)

// roleAction is the single statement needed to bring one extension table in
// line with the requested role flag.
type roleAction int

const (
	roleNoop roleAction = iota
	roleInsert
	roleUpdate
	roleDelete
)

func (a roleAction) String() string {
	switch a {
	case roleInsert:
		return "insert"
	case roleUpdate:
		return "update"
	case roleDelete:
		return "delete"
	}
	return "noop"
}

// roleTransitions is keyed by (row exists now, role requested).
var roleTransitions = map[[2]bool]roleAction{
	{false, false}: roleNoop,
	{false, true}:  roleInsert,
	{true, true}:   roleUpdate,
	{true, false}:  roleDelete,
}

func planRole(current, requested bool) roleAction {
	return roleTransitions[[2]bool{current, requested}]
}

// extension describes a 1:0..1 table hanging off users through a unique
// user_id column.
type extension struct {
	table  string
	column string
}

var (
	professorExt     = extension{table: "professores", column: "disciplina"}
	administratorExt = extension{table: "administradores", column: "cargo"}
)

func (x extension) statement(a roleAction) string {
	switch a {
	case roleInsert:
		return "INSERT INTO " + x.table + " (user_id, " + x.column + ") VALUES (?, ?)"
	case roleUpdate:
		return "UPDATE " + x.table + " SET " + x.column + " = ? WHERE user_id = ?"
	case roleDelete:
		return "DELETE FROM " + x.table + " WHERE user_id = ?"
	}
	return ""
}

// apply runs the statement for action inside the caller's transaction.
func (x extension) apply(ctx context.Context, ex database.Executor, a roleAction, userID int64, value *string) error {
	var err error
	switch a {
	case roleNoop:
		return nil
	case roleInsert:
		_, err = ex.ExecContext(ctx, x.statement(a), userID, value)
	case roleUpdate:
		_, err = ex.ExecContext(ctx, x.statement(a), value, userID)
	case roleDelete:
		_, err = ex.ExecContext(ctx, x.statement(a), userID)
	}
	if err != nil {
		return fmt.Errorf("%s %s for user %d: %w", a, x.table, userID, err)
	}
	return nil
}

// exists reports whether the user currently has a row in this table.
func (x extension) exists(ctx context.Context, ex database.Executor, userID int64) (bool, error) {
	var n int
	if err := ex.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+x.table+" WHERE user_id = ?", userID).Scan(&n); err != nil {
		return false, fmt.Errorf("read %s for user %d: %w", x.table, userID, err)
	}
	return n > 0, nil
}
