package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/crudtcc/incident-api/internal/queue"
)

// store is the contract shared by the simple entity repositories.
type store[T any] interface {
    List(ctx context.Context, filter string) ([]T, error)
    GetByID(ctx context.Context, id int64) (T, error)
    Create(ctx context.Context, v *T) error
    Update(ctx context.Context, v T) error
    Delete(ctx context.Context, id int64) error
}

// Resource serves list/get/create/update/delete for one table with no
// cross-table rules.
type Resource[T any] struct {
    Deps
    entity  string   // route segment and event entity
    label   string   // human name used in messages
    filters []string // query parameters accepted by List, in priority order
    store   store[T]
    getID   func(*T) int64
    setID   func(*T, int64)
}

func (r *Resource[T]) notFound() string { return r.label + " not found" }

// List handles GET /<entity>?<filter>=
func (r *Resource[T]) List(c echo.Context) error {
    ctx, cancel := r.dbContext(c)
    defer cancel()
    items, err := r.store.List(ctx, firstQuery(c, r.filters...))
    if err != nil {
        return r.fail(c, err, r.notFound(), "list "+r.entity)
    }
    return c.JSON(http.StatusOK, items)
}

// Get handles GET /<entity>/:id
func (r *Resource[T]) Get(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.String(http.StatusBadRequest, "invalid id")
    }
    ctx, cancel := r.dbContext(c)
    defer cancel()
    item, err := r.store.GetByID(ctx, id)
    if err != nil {
        return r.fail(c, err, r.notFound(), "get "+r.entity)
    }
    return c.JSON(http.StatusOK, item)
}

// Create handles POST /<entity> and echoes the body with its generated id.
func (r *Resource[T]) Create(c echo.Context) error {
    var item T
    if err := c.Bind(&item); err != nil {
        return c.String(http.StatusBadRequest, "invalid request body")
    }
    r.setID(&item, 0) // ids are always generated
    ctx, cancel := r.dbContext(c)
    defer cancel()
    if err := r.store.Create(ctx, &item); err != nil {
        return r.fail(c, err, r.notFound(), "create "+r.entity)
    }
    r.emit(c, r.entity, queue.ActionCreated, r.getID(&item))
    return c.JSON(http.StatusOK, item)
}

// Update handles PUT /<entity>/:id.  The response echoes the request rather
// than re-reading the row.
func (r *Resource[T]) Update(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.String(http.StatusBadRequest, "invalid id")
    }
    var item T
    if err := c.Bind(&item); err != nil {
        return c.String(http.StatusBadRequest, "invalid request body")
    }
    r.setID(&item, id) // the path wins over any id in the body
    ctx, cancel := r.dbContext(c)
    defer cancel()
    if err := r.store.Update(ctx, item); err != nil {
        return r.fail(c, err, r.notFound(), "update "+r.entity)
    }
    r.emit(c, r.entity, queue.ActionUpdated, id)
    return c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /<entity>/:id
func (r *Resource[T]) Delete(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.String(http.StatusBadRequest, "invalid id")
    }
    ctx, cancel := r.dbContext(c)
    defer cancel()
    if err := r.store.Delete(ctx, id); err != nil {
        return r.fail(c, err, r.notFound(), "delete "+r.entity)
    }
    r.emit(c, r.entity, queue.ActionDeleted, id)
    return c.JSON(http.StatusOK, deleted{ID: id, Message: r.label + " deleted"})
}
