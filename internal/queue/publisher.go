package queue

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher publishes push jobs as persistent JSON messages. The broker
// connection is opened lazily and reopened after a failure.
type Publisher struct {
    url   string
    queue string
    log   *zap.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
    if queue == "" {
        queue = PushQueueName
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{url: url, queue: queue, log: log}
}

// channel returns an open channel, dialing the broker if needed. The queue is
// declared durable on every (re)connect.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
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

// Publish enqueues job. A failed publish is retried once on a fresh
// connection; the error is returned so callers can log and move on.
func (p *Publisher) Publish(ctx context.Context, job PushJob) error {
    if job.PushToken == "" {
        return errors.New("push job without token")
    }
    body, err := json.Marshal(job)
    if err != nil {
        return err
    }
    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        MessageId:    job.NotificationID,
        Body:         body,
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    for attempt := 0; attempt < 2; attempt++ {
        var ch *amqp.Channel
        ch, err = p.channel()
        if err == nil {
            err = ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
            if err == nil {
                return nil
            }
        }
        p.log.Warn("push publish failed", zap.Int("attempt", attempt+1), zap.Error(err))
        p.reset()
    }
    return err
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
