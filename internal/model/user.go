package model

// User represents a row of the `users` table.  The JSON names follow the
// public API, which keeps the Portuguese column names of the schema.
type User struct {
    ID       int64  `json:"id"`       // users.id
    Name     string `json:"name"`     // users.name
    Email    string `json:"email"`    // users.email
    Telefone string `json:"telefone"` // users.telefone
}

// Professor is the optional professor extension of a user.  At most one row
// exists per user (unique user_id).
type Professor struct {
    UserID     int64   `json:"user_id"`    // professores.user_id
    Disciplina *string `json:"disciplina"` // professores.disciplina
}

// Administrator is the optional administrator extension of a user.
type Administrator struct {
    UserID int64   `json:"user_id"` // administradores.user_id
    Cargo  *string `json:"cargo"`   // administradores.cargo
}

// UserAggregate is a user together with its extension rows, as returned by
// a successful create.  A nil extension means the user does not hold that
// role and is rendered as JSON null.
type UserAggregate struct {
    Usuario       User           `json:"usuario"`
    Professor     *Professor     `json:"professor"`
    Administracao *Administrator `json:"administracao"`
}

// UserRow is one row of the users ⟕ professores ⟕ administradores join.
// Disciplina and Cargo are null when the extension row is absent.
type UserRow struct {
    ID              int64   `json:"id"`
    Name            string  `json:"name"`
    Email           string  `json:"email"`
    Telefone        string  `json:"telefone"`
    IsProfessor     bool    `json:"isProfessor"`
    Disciplina      *string `json:"disciplina"`
    IsAdministrador bool    `json:"isAdministrador"`
    Cargo           *string `json:"cargo"`
}

// UserInput is the request body accepted by user create and update.  The
// role flags decide which extension rows must exist after the write;
// Disciplina and Cargo are only stored when the matching flag is set.
type UserInput struct {
    Name            string  `json:"name"`
    Email           string  `json:"email"`
    Telefone        string  `json:"telefone"`
    IsProfessor     bool    `json:"isProfessor"`
    Disciplina      *string `json:"disciplina"`
    IsAdministrador bool    `json:"isAdministrador"`
    Cargo           *string `json:"cargo"`
}

// Normalize drops extension values whose role flag is not set.
func (in UserInput) Normalize() UserInput {
    if !in.IsProfessor {
        in.Disciplina = nil
    }
    if !in.IsAdministrador {
        in.Cargo = nil
    }
    return in
}

// User returns the users-table part of the input under the given id.
func (in UserInput) User(id int64) User {
    return User{ID: id, Name: in.Name, Email: in.Email, Telefone: in.Telefone}
}

// Row returns the joined projection the input describes under the given id.
func (in UserInput) Row(id int64) UserRow {
    return UserRow{
        ID:              id,
        Name:            in.Name,
        Email:           in.Email,
        Telefone:        in.Telefone,
        IsProfessor:     in.IsProfessor,
        Disciplina:      in.Disciplina,
        IsAdministrador: in.IsAdministrador,
        Cargo:           in.Cargo,
    }
}
