package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Handler processes one push job. Returning an error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, job PushJob) error

// ConsumerConfig configures StartPushConsumer.
type ConsumerConfig struct {
    URL      string
    Queue    string
    Prefetch int
}

// StartPushConsumer consumes push jobs until ctx is cancelled. Broker outages
// are survived with a reconnect loop using exponential backoff capped at 30s.
func StartPushConsumer(ctx context.Context, cfg ConsumerConfig, handle Handler, log *zap.Logger) error {
    if cfg.Queue == "" {
        cfg.Queue = PushQueueName
    }
    if cfg.Prefetch <= 0 {
        cfg.Prefetch = 50
    }
    if log == nil {
        log = zap.NewNop()
    }

    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return nil
        }
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.Warn("push consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return nil
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, cfg, handle, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        log.Warn("push consumer: loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return nil
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, handle Handler, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
        log.Warn("push consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := dispatch(ctx, d.Body, handle); err != nil {
                log.Warn("push consumer: job failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func dispatch(ctx context.Context, body []byte, handle Handler) error {
    var job PushJob
    if err := json.Unmarshal(body, &job); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    return handle(ctx, job)
}
