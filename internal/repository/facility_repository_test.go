package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crudtcc/incident-api/internal/database/dbtest"
	"github.com/crudtcc/incident-api/internal/model"
)

func TestRoomRepo_CRUD(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoomRepo(db)
	ctx := context.Background()

	a := model.Room{Bloco: "A", Numero: "101"}
	b := model.Room{Bloco: "B", Numero: "201"}
	for _, s := range []*model.Room{&a, &b} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if a.ID == 0 || b.ID == a.ID {
		t.Fatalf("ids = %d, %d", a.ID, b.ID)
	}

	got, err := repo.List(ctx, "B")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0] != b {
		t.Errorf("List(B) = %+v, want [%+v]", got, b)
	}

	a.Numero = "102"
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	// Same values again still finds the row.
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("second Update() error = %v", err)
	}
	if s, err := repo.GetByID(ctx, a.ID); err != nil || s.Numero != "102" {
		t.Errorf("GetByID() = %+v, %v", s, err)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, model.Room{ID: 999}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

// seedRoomAndUser returns the ids of one room and one user.
func seedRoomAndUser(t *testing.T, ctx context.Context, rooms *RoomRepo, users *UserRepo) (int64, int64) {
	t.Helper()
	room := model.Room{Bloco: "C", Numero: "7"}
	if err := rooms.Create(ctx, &room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	agg, err := users.Create(ctx, model.UserInput{Name: "Reporter"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return room.ID, agg.Usuario.ID
}

func TestIncidentRepo_CRUD(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	salaID, userID := seedRoomAndUser(t, ctx, NewRoomRepo(db), NewUserRepo(db))
	repo := NewIncidentRepo(db)

	when := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	in := model.Incident{
		UsersID:   userID,
		SalaID:    salaID,
		Titulo:    "Projector broken",
		Descricao: "No signal",
		DataHora:  model.Timestamp{Time: when},
		Status:    "open",
	}
	if err := repo.Create(ctx, &in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.DataHora.Equal(when) {
		t.Errorf("DataHora = %v, want %v", got.DataHora.Time, when)
	}
	if got.Titulo != in.Titulo || got.Status != "open" {
		t.Errorf("GetByID() = %+v", got)
	}

	list, err := repo.List(ctx, "projector")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List(projector) returned %d rows, want 1", len(list))
	}

	in.Status = "closed"
	if err := repo.Update(ctx, in); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got, _ := repo.GetByID(ctx, in.ID); got.Status != "closed" {
		t.Errorf("Status = %q, want closed", got.Status)
	}

	bad := in
	bad.ID = 0
	bad.SalaID = 999
	if err := repo.Create(ctx, &bad); err == nil {
		t.Error("Create() with unknown sala_id should fail")
	}

	if err := repo.Delete(ctx, in.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, in.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDeviceAndLinkRepos(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	salaID, userID := seedRoomAndUser(t, ctx, NewRoomRepo(db), NewUserRepo(db))

	devices := NewDeviceRepo(db)
	d := model.Device{SalaID: salaID, Name: "Projector", Localizacao: "ceiling", Descricao: "Epson"}
	if err := devices.Create(ctx, &d); err != nil {
		t.Fatalf("create device: %v", err)
	}
	if list, err := devices.List(ctx, "proj"); err != nil || len(list) != 1 || list[0] != d {
		t.Errorf("List(proj) = %+v, %v", list, err)
	}

	incident := model.Incident{UsersID: userID, SalaID: salaID, Titulo: "t"}
	if err := NewIncidentRepo(db).Create(ctx, &incident); err != nil {
		t.Fatalf("create incident: %v", err)
	}

	links := NewIncidentDeviceRepo(db)
	l := model.IncidentDevice{IncidentesID: incident.ID, DispositivosID: d.ID, Descricao: "lamp burnt"}
	if err := links.Create(ctx, &l); err != nil {
		t.Fatalf("create link: %v", err)
	}
	if list, err := links.List(ctx, "lamp"); err != nil || len(list) != 1 || list[0] != l {
		t.Errorf("links.List(lamp) = %+v, %v", list, err)
	}
	if list, err := links.List(ctx, "none"); err != nil || len(list) != 0 {
		t.Errorf("links.List(none) = %+v, %v", list, err)
	}

	l.Descricao = "replaced"
	if err := links.Update(ctx, l); err != nil {
		t.Fatalf("update link: %v", err)
	}
	if got, err := links.GetByID(ctx, l.ID); err != nil || got.Descricao != "replaced" {
		t.Errorf("links.GetByID() = %+v, %v", got, err)
	}

	// The device is still referenced by the link.
	if err := devices.Delete(ctx, d.ID); err == nil {
		t.Error("deleting a linked device should fail")
	}
	if err := links.Delete(ctx, l.ID); err != nil {
		t.Fatalf("delete link: %v", err)
	}
	if err := devices.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete device: %v", err)
	}
	if _, err := devices.GetByID(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("devices.GetByID() error = %v, want ErrNotFound", err)
	}
}
