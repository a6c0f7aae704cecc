package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/crudtcc/incident-api/internal/model"
    "github.com/crudtcc/incident-api/internal/queue"
    "github.com/crudtcc/incident-api/internal/repository"
)

const userNotFound = "user not found"

// UserHandler serves /usuarios.  Every write goes through the user
// aggregate so a user and its professor/administrator rows change together.
type UserHandler struct {
    Deps
    Users *repository.UserRepo
}

// NewUserHandler panics if the repository is nil.
func NewUserHandler(users *repository.UserRepo, deps Deps) *UserHandler {
    if users == nil {
        panic("nil repository passed to NewUserHandler")
    }
    return &UserHandler{Deps: deps.withDefaults(), Users: users}
}

// bindUser decodes and checks the request body.  On failure it has already
// written the 400 response.
func bindUser(c echo.Context) (model.UserInput, bool, error) {
    var in model.UserInput
    if err := c.Bind(&in); err != nil {
        return in, false, c.String(http.StatusBadRequest, "invalid request body")
    }
    in.Name = strings.TrimSpace(in.Name)
    if in.Name == "" {
        return in, false, c.String(http.StatusBadRequest, "name is required")
    }
    return in, true, nil
}

// List handles GET /usuarios?name=
func (h *UserHandler) List(c echo.Context) error {
    ctx, cancel := h.dbContext(c)
    defer cancel()
    rows, err := h.Users.List(ctx, c.QueryParam("name"))
    if err != nil {
        return h.fail(c, err, userNotFound, "list users")
    }
    return c.JSON(http.StatusOK, rows)
}

// Get handles GET /usuarios/:id
func (h *UserHandler) Get(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.String(http.StatusBadRequest, "invalid id")
    }
    ctx, cancel := h.dbContext(c)
    defer cancel()
    row, err := h.Users.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err, userNotFound, "get user")
    }
    return c.JSON(http.StatusOK, row)
}

// Create handles POST /usuarios and answers with the stored aggregate.
func (h *UserHandler) Create(c echo.Context) error {
    in, ok, err := bindUser(c)
    if !ok {
        return err
    }
    ctx, cancel := h.dbContext(c)
    defer cancel()
    agg, err := h.Users.Create(ctx, in)
    if err != nil {
        return h.fail(c, err, userNotFound, "create user")
    }
    h.emit(c, EntityUsers, queue.ActionCreated, agg.Usuario.ID)
    return c.JSON(http.StatusOK, struct {
        Message string `json:"message"`
        model.UserAggregate
    }{"user created", agg})
}

// Update handles PUT /usuarios/:id.  The response echoes the request rather
// than re-reading the rows.
func (h *UserHandler) Update(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.String(http.StatusBadRequest, "invalid id")
    }
    in, ok, err := bindUser(c)
    if !ok {
        return err
    }
    ctx, cancel := h.dbContext(c)
    defer cancel()
    if err := h.Users.Update(ctx, id, in); err != nil {
        return h.fail(c, err, userNotFound, "update user")
    }
    h.emit(c, EntityUsers, queue.ActionUpdated, id)
    return c.JSON(http.StatusOK, struct {
        Message string `json:"message"`
        model.UserRow
    }{"user updated", in.Normalize().Row(id)})
}

// Delete handles DELETE /usuarios/:id
func (h *UserHandler) Delete(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.String(http.StatusBadRequest, "invalid id")
    }
    ctx, cancel := h.dbContext(c)
    defer cancel()
    if err := h.Users.Delete(ctx, id); err != nil {
        return h.fail(c, err, userNotFound, "delete user")
    }
    h.emit(c, EntityUsers, queue.ActionDeleted, id)
    return c.JSON(http.StatusOK, deleted{ID: id, Message: "user deleted"})
}
