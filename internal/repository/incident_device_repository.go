package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crudtcc/incident-api/internal/database"
	"github.com/crudtcc/incident-api/internal/model"
)

// IncidentDeviceRepo provides CRUD over the incidentes_dispositivos join
// table.  Rows carry only a description, which is what the list filter
// matches against.
type IncidentDeviceRepo struct {
	db *database.DB
}

func NewIncidentDeviceRepo(db *database.DB) *IncidentDeviceRepo {
	return &IncidentDeviceRepo{db: db}
}

const incidentDeviceSelect = `SELECT id, incidentes_id, dispositivos_id, COALESCE(descricao, '')
FROM incidentes_dispositivos`

func scanIncidentDevice(s rowScanner, l *model.IncidentDevice) error {
	return s.Scan(&l.ID, &l.IncidentesID, &l.DispositivosID, &l.Descricao)
}

func (r *IncidentDeviceRepo) List(ctx context.Context, descricaoFilter string) ([]model.IncidentDevice, error) {
	q, args := withContains(incidentDeviceSelect, "descricao", descricaoFilter)
	rows, err := r.db.Executor().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list incident devices: %w", err)
	}
	defer rows.Close()

	out := []model.IncidentDevice{}
	for rows.Next() {
		var l model.IncidentDevice
		if err := scanIncidentDevice(rows, &l); err != nil {
			return nil, fmt.Errorf("scan incident device: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *IncidentDeviceRepo) GetByID(ctx context.Context, id int64) (model.IncidentDevice, error) {
	var l model.IncidentDevice
	err := scanIncidentDevice(r.db.Executor().QueryRowContext(ctx, incidentDeviceSelect+" WHERE id = ?", id), &l)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	if err != nil {
		return l, fmt.Errorf("get incident device %d: %w", id, err)
	}
	return l, nil
}

func (r *IncidentDeviceRepo) Create(ctx context.Context, l *model.IncidentDevice) error {
	id, err := r.db.Executor().InsertID(ctx,
		"INSERT INTO incidentes_dispositivos (incidentes_id, dispositivos_id, descricao) VALUES (?, ?, ?)",
		l.IncidentesID, l.DispositivosID, l.Descricao)
	if err != nil {
		return fmt.Errorf("insert incident device: %w", err)
	}
	l.ID = id
	return nil
}

func (r *IncidentDeviceRepo) Update(ctx context.Context, l model.IncidentDevice) error {
	ok, err := r.db.Executor().Affected(ctx,
		"UPDATE incidentes_dispositivos SET incidentes_id = ?, dispositivos_id = ?, descricao = ? WHERE id = ?",
		l.IncidentesID, l.DispositivosID, l.Descricao, l.ID)
	return affectedErr("update incident device", l.ID, ok, err)
}

func (r *IncidentDeviceRepo) Delete(ctx context.Context, id int64) error {
	ok, err := r.db.Executor().Affected(ctx, "DELETE FROM incidentes_dispositivos WHERE id = ?", id)
	return affectedErr("delete incident device", id, ok, err)
}
