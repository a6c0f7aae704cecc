package model

// Room is a row of the `salas` table: a numbered room inside a block.
type Room struct {
    ID     int64  `json:"id"`     // salas.id
    Bloco  string `json:"bloco"`  // salas.bloco
    Numero string `json:"numero"` // salas.numero
}
