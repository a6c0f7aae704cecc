package handler

import (
    "github.com/crudtcc/incident-api/internal/model"
    "github.com/crudtcc/incident-api/internal/repository"
)

// FacilityHandler bundles the handlers for rooms, incidents, devices and the
// devices affected by each incident.
type FacilityHandler struct {
    Rooms           *Resource[model.Room]
    Incidents       *Resource[model.Incident]
    Devices         *Resource[model.Device]
    IncidentDevices *Resource[model.IncidentDevice]
}

// NewFacilityHandler constructs the handler and panics if any repository is nil.
func NewFacilityHandler(rooms *repository.RoomRepo, incidents *repository.IncidentRepo, devices *repository.DeviceRepo, links *repository.IncidentDeviceRepo, deps Deps) *FacilityHandler {
    if rooms == nil || incidents == nil || devices == nil || links == nil {
        panic("nil repository passed to NewFacilityHandler")
    }
    deps = deps.withDefaults()
    return &FacilityHandler{
        Rooms: &Resource[model.Room]{
            Deps: deps, entity: EntityRooms, label: "room",
            filters: []string{"bloco"},
            store:   rooms,
            getID:   func(v *model.Room) int64 { return v.ID },
            setID:   func(v *model.Room, id int64) { v.ID = id },
        },
        Incidents: &Resource[model.Incident]{
            Deps: deps, entity: EntityIncidents, label: "incident",
            filters: []string{"titulo"},
            store:   incidents,
            getID:   func(v *model.Incident) int64 { return v.ID },
            setID:   func(v *model.Incident, id int64) { v.ID = id },
        },
        Devices: &Resource[model.Device]{
            Deps: deps, entity: EntityDevices, label: "device",
            filters: []string{"name"},
            store:   devices,
            getID:   func(v *model.Device) int64 { return v.ID },
            setID:   func(v *model.Device, id int64) { v.ID = id },
        },
        IncidentDevices: &Resource[model.IncidentDevice]{
            Deps: deps, entity: EntityIncidentDevices, label: "incident device",
            filters: []string{"name", "descricao"},
            store:   links,
            getID:   func(v *model.IncidentDevice) int64 { return v.ID },
            setID:   func(v *model.IncidentDevice, id int64) { v.ID = id },
        },
    }
}
