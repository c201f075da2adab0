package service

import (
    "context"
    "sync"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/queue"
)

const publishTimeout = 5 * time.Second

// notifier publishes events off the request path.  A broker outage is
// logged and otherwise ignored; the write it describes is already
// committed.
type notifier struct {
    pub    EventPublisher
    logger *zap.Logger
    wg     sync.WaitGroup
}

func (n *notifier) emit(ctx context.Context, ev queue.Event) {
    if n.pub == nil {
        return
    }
    n.wg.Add(1)
    go func() {
        defer n.wg.Done()
        ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
        defer cancel()
        if err := n.pub.Publish(ctx, ev); err != nil {
            n.logger.Warn("event not published", zap.String("type", ev.Type), zap.Error(err))
        }
    }()
}

// wait blocks until every in-flight publish has finished.
func (n *notifier) wait() { n.wg.Wait() }
