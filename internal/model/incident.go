package model

// Incident is a problem reported by a user in a room.
//
// Fields:
//  ID        – primary key identifier.
//  UsersID   – user who reported the incident.
//  SalaID    – room where it happened.
//  Titulo    – short title, used by the list filter.
//  Descricao – free text description.
//  DataHora  – when it happened.
//  Status    – workflow state as chosen by the client.
type Incident struct {
    ID        int64     `json:"id"`        // incidentes.id
    UsersID   int64     `json:"users_id"`  // incidentes.users_id
    SalaID    int64     `json:"sala_id"`   // incidentes.sala_id
    Titulo    string    `json:"titulo"`    // incidentes.titulo
    Descricao string    `json:"descricao"` // incidentes.descricao
    DataHora  Timestamp `json:"data_hora"` // incidentes.data_hora
    Status    string    `json:"status"`    // incidentes.status
}
