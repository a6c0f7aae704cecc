// Package service publishes entity change events to RabbitMQ.  Failures are
// logged and returned so callers can ignore them without interrupting the
// request that caused the change.
package service

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/crudtcc/incident-api/internal/logger"
    q "github.com/crudtcc/incident-api/internal/queue"
)

// Publisher delivers change events to the broker.
type Publisher interface {
    Publish(ctx context.Context, ev q.EntityEvent) error
}

// DefaultDialTimeout bounds how long a publish waits for the broker's TCP
// and AMQP handshake.
const DefaultDialTimeout = 2 * time.Second

// AMQPPublisher dials the broker for every event.  Writes are infrequent,
// so there is no long-lived connection to keep healthy.  Publish runs on the
// request path, so the dial is bounded by DialTimeout and the request
// context's deadline, whichever comes first.
type AMQPPublisher struct {
    url         string
    log         *logger.Logger
    DialTimeout time.Duration
}

func NewAMQPPublisher(url string, log *logger.Logger) *AMQPPublisher {
    return &AMQPPublisher{url: url, log: log.With("component", "publisher"), DialTimeout: DefaultDialTimeout}
}

// dialTimeout returns the time left for dialing under ctx.
func (p *AMQPPublisher) dialTimeout(ctx context.Context) time.Duration {
    d := p.DialTimeout
    if d <= 0 {
        d = DefaultDialTimeout
    }
    if deadline, ok := ctx.Deadline(); ok {
        if left := time.Until(deadline); left < d {
            d = left
        }
    }
    return d
}

// Publish sends ev to the entity.changed queue as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev q.EntityEvent) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    timeout := p.dialTimeout(ctx)
    if timeout <= 0 {
        return context.DeadlineExceeded
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        p.log.Warn("dial failed", "error", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("channel open failed", "error", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.EntityChangedQueue, // name
        true,                 // durable
        false,                // autoDelete
        false,                // exclusive
        false,                // noWait
        nil,                  // args
    ); err != nil {
        p.log.Warn("queue declare failed", "error", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",                   // default exchange
        q.EntityChangedQueue, // routing key = queue name
        false,                // mandatory
        false,                // immediate
        pub,
    ); err != nil {
        p.log.Warn("publish failed", "error", err, "entity", ev.Entity, "id", ev.ID)
        return err
    }
    return nil
}

// NopPublisher drops every event.  Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, q.EntityEvent) error { return nil }

// RecordingPublisher keeps published events in memory.  Used by tests.
type RecordingPublisher struct {
    Err error

    mu     sync.Mutex
    events []q.EntityEvent
}

func (r *RecordingPublisher) Publish(_ context.Context, ev q.EntityEvent) error {
    if r.Err != nil {
        return r.Err
    }
    r.mu.Lock()
    r.events = append(r.events, ev)
    r.mu.Unlock()
    return nil
}

// Events returns a copy of everything published so far.
func (r *RecordingPublisher) Events() []q.EntityEvent {
    r.mu.Lock()
    defer r.mu.Unlock()
    return append([]q.EntityEvent(nil), r.events...)
}
