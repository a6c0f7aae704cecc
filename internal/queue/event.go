// Package queue defines the change events exchanged over the message broker
// and the consumer that turns them into an audit log.
package queue

import "time"

// EntityChangedQueue is the durable queue every write is announced on.
const EntityChangedQueue = "entity.changed"

// Actions carried by EntityEvent.
const (
    ActionCreated = "created"
    ActionUpdated = "updated"
    ActionDeleted = "deleted"
)

// EntityEvent is published after a successful write.  It carries enough to
// audit the change without querying the primary database.
type EntityEvent struct {
    Entity     string `json:"entity"`      // usuarios, salas, incidentes, ...
    Action     string `json:"action"`      // created, updated or deleted
    ID         int64  `json:"id"`          // primary key of the affected row
    OccurredAt string `json:"occurred_at"` // RFC 3339, UTC
}

// NewEntityEvent stamps an event with the current time.
func NewEntityEvent(entity, action string, id int64) EntityEvent {
    return EntityEvent{
        Entity:     entity,
        Action:     action,
        ID:         id,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
}
