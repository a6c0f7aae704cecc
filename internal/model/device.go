package model

// Device is equipment installed in a room.
type Device struct {
    ID          int64  `json:"id"`          // dispositivos.id
    SalaID      int64  `json:"sala_id"`     // dispositivos.sala_id
    Name        string `json:"name"`        // dispositivos.name
    Localizacao string `json:"localizacao"` // dispositivos.localizacao
    Descricao   string `json:"descricao"`   // dispositivos.descricao
}

// IncidentDevice links an incident to a device it affected.
type IncidentDevice struct {
    ID             int64  `json:"id"`              // incidentes_dispositivos.id
    IncidentesID   int64  `json:"incidentes_id"`   // incidentes_dispositivos.incidentes_id
    DispositivosID int64  `json:"dispositivos_id"` // incidentes_dispositivos.dispositivos_id
    Descricao      string `json:"descricao"`       // incidentes_dispositivos.descricao
}
