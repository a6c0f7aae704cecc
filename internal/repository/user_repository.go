package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crudtcc/incident-api/internal/database"
	"github.com/crudtcc/incident-api/internal/model"
)

// UserRepo keeps a user and its professor/administrator extension rows
// consistent.  Every write runs in one transaction: no other transaction
// sees a user without the extension rows its role flags call for.
type UserRepo struct {
	db *database.DB
}

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db} }

const userJoinSelect = `SELECT u.id, u.name, COALESCE(u.email, ''), COALESCE(u.telefone, ''),
       p.user_id, p.disciplina, a.user_id, a.cargo
FROM users u
LEFT JOIN professores p ON u.id = p.user_id
LEFT JOIN administradores a ON u.id = a.user_id`

// List returns one row per user.  When nameFilter is not empty only users
// whose name contains it are returned; case sensitivity follows the column
// collation.
func (r *UserRepo) List(ctx context.Context, nameFilter string) ([]model.UserRow, error) {
	q := userJoinSelect
	var args []any
	if nameFilter != "" {
		q += " WHERE u.name LIKE ? " + database.LikeEscapeClause
		args = append(args, database.ContainsPattern(nameFilter))
	}
	q += " ORDER BY u.id"

	rows, err := r.db.Executor().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []model.UserRow{}
	for rows.Next() {
		row, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// GetByID returns the joined row of one user or ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.UserRow, error) {
	row, err := scanUserRow(r.db.Executor().QueryRowContext(ctx, userJoinSelect+" WHERE u.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserRow{}, ErrUserNotFound
	}
	return row, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(s rowScanner) (model.UserRow, error) {
	var (
		row         model.UserRow
		profUserID  sql.NullInt64
		disciplina  sql.NullString
		adminUserID sql.NullInt64
		cargo       sql.NullString
	)
	if err := s.Scan(&row.ID, &row.Name, &row.Email, &row.Telefone, &profUserID, &disciplina, &adminUserID, &cargo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row, err
		}
		return row, fmt.Errorf("scan user: %w", err)
	}
	row.IsProfessor = profUserID.Valid
	if disciplina.Valid {
		row.Disciplina = &disciplina.String
	}
	row.IsAdministrador = adminUserID.Valid
	if cargo.Valid {
		row.Cargo = &cargo.String
	}
	return row, nil
}

// Create inserts the user and the extension rows selected by the role
// flags.  Any failure rolls the whole aggregate back.
func (r *UserRepo) Create(ctx context.Context, in model.UserInput) (model.UserAggregate, error) {
	in = in.Normalize()
	var agg model.UserAggregate

	err := r.db.InTx(ctx, func(ex database.Executor) error {
		id, err := ex.InsertID(ctx,
			"INSERT INTO users (name, email, telefone) VALUES (?, ?, ?)",
			in.Name, in.Email, in.Telefone)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if err := applyRoles(ctx, ex, id, roleState{}, in); err != nil {
			return err
		}
		agg = aggregateOf(id, in)
		return nil
	})
	if err != nil {
		return model.UserAggregate{}, err
	}
	return agg, nil
}

// Update rewrites the user row and inserts, updates or deletes each
// extension row so that it matches the role flags.  It fails with
// ErrUserNotFound when the user does not exist.  Applying the same input
// twice leaves the same state as applying it once.
func (r *UserRepo) Update(ctx context.Context, id int64, in model.UserInput) error {
	in = in.Normalize()
	return r.db.InTx(ctx, func(ex database.Executor) error {
		if err := lockUser(ctx, ex, id); err != nil {
			return err
		}
		current, err := readRoles(ctx, ex, id)
		if err != nil {
			return err
		}
		if _, err := ex.ExecContext(ctx,
			"UPDATE users SET name = ?, email = ?, telefone = ? WHERE id = ?",
			in.Name, in.Email, in.Telefone, id); err != nil {
			return fmt.Errorf("update user %d: %w", id, err)
		}
		return applyRoles(ctx, ex, id, current, in)
	})
}

// Delete removes the extension rows before the user row so that foreign
// keys are never violated.  It fails with ErrUserNotFound when the user does
// not exist.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	return r.db.InTx(ctx, func(ex database.Executor) error {
		if err := lockUser(ctx, ex, id); err != nil {
			return err
		}
		for _, x := range []extension{professorExt, administratorExt} {
			if err := x.apply(ctx, ex, roleDelete, id, nil); err != nil {
				return err
			}
		}
		if _, err := ex.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		return nil
	})
}

// roleState records which extension rows exist for a user.
type roleState struct {
	professor     bool
	administrator bool
}

func readRoles(ctx context.Context, ex database.Executor, id int64) (roleState, error) {
	var s roleState
	var err error
	if s.professor, err = professorExt.exists(ctx, ex, id); err != nil {
		return s, err
	}
	if s.administrator, err = administratorExt.exists(ctx, ex, id); err != nil {
		return s, err
	}
	return s, nil
}

func applyRoles(ctx context.Context, ex database.Executor, id int64, current roleState, in model.UserInput) error {
	if err := professorExt.apply(ctx, ex, planRole(current.professor, in.IsProfessor), id, in.Disciplina); err != nil {
		return err
	}
	return administratorExt.apply(ctx, ex, planRole(current.administrator, in.IsAdministrador), id, in.Cargo)
}

// lockUser takes a row lock on the user for the rest of the transaction so
// concurrent writes to the same user are serialized.
func lockUser(ctx context.Context, ex database.Executor, id int64) error {
	var got int64
	err := ex.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ?"+ex.Dialect().ForUpdate(), id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lock user %d: %w", id, err)
	}
	return nil
}

func aggregateOf(id int64, in model.UserInput) model.UserAggregate {
	agg := model.UserAggregate{Usuario: in.User(id)}
	if in.IsProfessor {
		agg.Professor = &model.Professor{UserID: id, Disciplina: in.Disciplina}
	}
	if in.IsAdministrador {
		agg.Administracao = &model.Administrator{UserID: id, Cargo: in.Cargo}
	}
	return agg
}
