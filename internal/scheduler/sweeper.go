// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
    "context"
    "fmt"
    "time"

    "github.com/robfig/cron/v3"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/clock"
    "github.com/iliyamo/yoga-studio-booking/internal/observability"
)

// sweepTimeout bounds a single sweep.
const sweepTimeout = time.Minute

// Finisher marks scheduled sessions whose end time has passed as
// completed and reports how many changed.
type Finisher interface {
    MarkFinished(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper completes finished sessions so they drop out of the bookable set
// even when nobody reads them.
type Sweeper struct {
    store  Finisher
    clock  clock.Clock
    logger *zap.Logger
    cron   *cron.Cron
}

func NewSweeper(store Finisher, clk clock.Clock, logger *zap.Logger) *Sweeper {
    return &Sweeper{store: store, clock: clk, logger: logger.Named("sweeper")}
}

// Sweep runs one pass.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
    ctx, span := observability.StartSpan(ctx, "Sweeper.Sweep")
    n, err := s.store.MarkFinished(ctx, s.clock.Now())
    observability.EndSpan(span, err)
    if err != nil {
        s.logger.Error("sweep failed", zap.Error(err))
        return 0, err
    }
    if n > 0 {
        s.logger.Info("sessions completed", zap.Int64("count", n))
    }
    return n, nil
}

// Start schedules Sweep on spec (standard cron syntax or descriptors such
// as "@every 5m").  Overlapping runs are skipped.
func (s *Sweeper) Start(spec string) error {
    c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
    if _, err := c.AddFunc(spec, func() {
        ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
        defer cancel()
        _, _ = s.Sweep(ctx)
    }); err != nil {
        return fmt.Errorf("sweep schedule %q: %w", spec, err)
    }
    s.cron = c
    c.Start()
    s.logger.Info("sweeper started", zap.String("schedule", spec))
    return nil
}

// Stop halts the schedule and waits for a running sweep to finish or ctx
// to expire.
func (s *Sweeper) Stop(ctx context.Context) {
    if s.cron == nil {
        return
    }
    select {
    case <-s.cron.Stop().Done():
    case <-ctx.Done():
    }
}
