package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crudtcc/incident-api/internal/database"
	"github.com/crudtcc/incident-api/internal/model"
)

// DeviceRepo provides CRUD over the dispositivos table.
type DeviceRepo struct {
	db *database.DB
}

func NewDeviceRepo(db *database.DB) *DeviceRepo { return &DeviceRepo{db: db} }

const deviceSelect = `SELECT id, sala_id, COALESCE(name, ''), COALESCE(localizacao, ''), COALESCE(descricao, '')
FROM dispositivos`

func scanDevice(s rowScanner, d *model.Device) error {
	return s.Scan(&d.ID, &d.SalaID, &d.Name, &d.Localizacao, &d.Descricao)
}

func (r *DeviceRepo) List(ctx context.Context, nameFilter string) ([]model.Device, error) {
	q, args := withContains(deviceSelect, "name", nameFilter)
	rows, err := r.db.Executor().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	out := []model.Device{}
	for rows.Next() {
		var d model.Device
		if err := scanDevice(rows, &d); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DeviceRepo) GetByID(ctx context.Context, id int64) (model.Device, error) {
	var d model.Device
	err := scanDevice(r.db.Executor().QueryRowContext(ctx, deviceSelect+" WHERE id = ?", id), &d)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("get device %d: %w", id, err)
	}
	return d, nil
}

func (r *DeviceRepo) Create(ctx context.Context, d *model.Device) error {
	id, err := r.db.Executor().InsertID(ctx,
		"INSERT INTO dispositivos (sala_id, name, localizacao, descricao) VALUES (?, ?, ?, ?)",
		d.SalaID, d.Name, d.Localizacao, d.Descricao)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	d.ID = id
	return nil
}

func (r *DeviceRepo) Update(ctx context.Context, d model.Device) error {
	ok, err := r.db.Executor().Affected(ctx,
		"UPDATE dispositivos SET sala_id = ?, name = ?, localizacao = ?, descricao = ? WHERE id = ?",
		d.SalaID, d.Name, d.Localizacao, d.Descricao, d.ID)
	return affectedErr("update device", d.ID, ok, err)
}

func (r *DeviceRepo) Delete(ctx context.Context, id int64) error {
	ok, err := r.db.Executor().Affected(ctx, "DELETE FROM dispositivos WHERE id = ?", id)
	return affectedErr("delete device", id, ok, err)
}
