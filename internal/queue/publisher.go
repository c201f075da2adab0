package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher sends events to QueueName over one long-lived channel.  The
// connection is dialed on first use and re-dialed after any failure.
// Messages are marked as persistent.
type Publisher struct {
    url    string
    logger *zap.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the broker at url.  No connection
// is made until the first Publish.
func NewPublisher(url string, logger *zap.Logger) *Publisher {
    return &Publisher{url: url, logger: logger.Named("publisher")}
}

func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.ch, p.conn = nil, nil
}

// Publish sends ev.  Errors are logged and returned so the caller can
// ignore them without interrupting the request.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channel()
    if err != nil {
        p.logger.Warn("rabbitmq unavailable", zap.String("event", ev.Type), zap.Error(err))
        return err
    }
    err = ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    })
    if err != nil {
        p.reset()
        p.logger.Warn("publish failed", zap.String("event", ev.Type), zap.Error(err))
        return fmt.Errorf("publish %s: %w", ev.Type, err)
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
