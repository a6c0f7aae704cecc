package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crudtcc/incident-api/internal/database"
	"github.com/crudtcc/incident-api/internal/model"
)

// RoomRepo encapsulates all database queries related to rooms (salas).
type RoomRepo struct {
	db *database.DB
}

func NewRoomRepo(db *database.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomSelect = `SELECT id, COALESCE(bloco, ''), COALESCE(numero, '') FROM salas`

// List returns all rooms ordered by id, optionally only those whose block
// contains blocoFilter.
func (r *RoomRepo) List(ctx context.Context, blocoFilter string) ([]model.Room, error) {
	q, args := withContains(roomSelect, "bloco", blocoFilter)
	rows, err := r.db.Executor().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	out := []model.Room{}
	for rows.Next() {
		var s model.Room
		if err := rows.Scan(&s.ID, &s.Bloco, &s.Numero); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns the room or ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id int64) (model.Room, error) {
	var s model.Room
	err := r.db.Executor().QueryRowContext(ctx, roomSelect+" WHERE id = ?", id).Scan(&s.ID, &s.Bloco, &s.Numero)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("get room %d: %w", id, err)
	}
	return s, nil
}

// Create inserts the room and sets its generated ID.
func (r *RoomRepo) Create(ctx context.Context, s *model.Room) error {
	id, err := r.db.Executor().InsertID(ctx, "INSERT INTO salas (bloco, numero) VALUES (?, ?)", s.Bloco, s.Numero)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	s.ID = id
	return nil
}

// Update overwrites every column of the room; ErrNotFound when absent.
func (r *RoomRepo) Update(ctx context.Context, s model.Room) error {
	ok, err := r.db.Executor().Affected(ctx, "UPDATE salas SET bloco = ?, numero = ? WHERE id = ?", s.Bloco, s.Numero, s.ID)
	return affectedErr("update room", s.ID, ok, err)
}

// Delete removes the room; ErrNotFound when absent.
func (r *RoomRepo) Delete(ctx context.Context, id int64) error {
	ok, err := r.db.Executor().Affected(ctx, "DELETE FROM salas WHERE id = ?", id)
	return affectedErr("delete room", id, ok, err)
}
