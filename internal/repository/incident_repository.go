package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crudtcc/incident-api/internal/database"
	"github.com/crudtcc/incident-api/internal/model"
)

// IncidentRepo provides CRUD over the incidentes table.  The users_id and
// sala_id foreign keys are enforced by the database; violations surface as
// driver errors.
type IncidentRepo struct {
	db *database.DB
}

func NewIncidentRepo(db *database.DB) *IncidentRepo { return &IncidentRepo{db: db} }

const incidentSelect = `SELECT id, users_id, sala_id, COALESCE(titulo, ''), COALESCE(descricao, ''), data_hora, COALESCE(status, '')
FROM incidentes`

func scanIncident(s rowScanner, in *model.Incident) error {
	return s.Scan(&in.ID, &in.UsersID, &in.SalaID, &in.Titulo, &in.Descricao, &in.DataHora, &in.Status)
}

// List returns incidents ordered by id, optionally filtered on titulo.
func (r *IncidentRepo) List(ctx context.Context, tituloFilter string) ([]model.Incident, error) {
	q, args := withContains(incidentSelect, "titulo", tituloFilter)
	rows, err := r.db.Executor().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	out := []model.Incident{}
	for rows.Next() {
		var in model.Incident
		if err := scanIncident(rows, &in); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// GetByID returns the incident or ErrNotFound.
func (r *IncidentRepo) GetByID(ctx context.Context, id int64) (model.Incident, error) {
	var in model.Incident
	err := scanIncident(r.db.Executor().QueryRowContext(ctx, incidentSelect+" WHERE id = ?", id), &in)
	if errors.Is(err, sql.ErrNoRows) {
		return in, ErrNotFound
	}
	if err != nil {
		return in, fmt.Errorf("get incident %d: %w", id, err)
	}
	return in, nil
}

// Create inserts the incident and sets its generated ID.
func (r *IncidentRepo) Create(ctx context.Context, in *model.Incident) error {
	const q = `INSERT INTO incidentes (users_id, sala_id, titulo, descricao, data_hora, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	id, err := r.db.Executor().InsertID(ctx, q, in.UsersID, in.SalaID, in.Titulo, in.Descricao, in.DataHora, in.Status)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	in.ID = id
	return nil
}

// Update overwrites every column of the incident; ErrNotFound when absent.
func (r *IncidentRepo) Update(ctx context.Context, in model.Incident) error {
	const q = `UPDATE incidentes
	           SET users_id = ?, sala_id = ?, titulo = ?, descricao = ?, data_hora = ?, status = ?
	           WHERE id = ?`
	ok, err := r.db.Executor().Affected(ctx, q, in.UsersID, in.SalaID, in.Titulo, in.Descricao, in.DataHora, in.Status, in.ID)
	return affectedErr("update incident", in.ID, ok, err)
}

// Delete removes the incident; ErrNotFound when absent.
func (r *IncidentRepo) Delete(ctx context.Context, id int64) error {
	ok, err := r.db.Executor().Affected(ctx, "DELETE FROM incidentes WHERE id = ?", id)
	return affectedErr("delete incident", id, ok, err)
}
