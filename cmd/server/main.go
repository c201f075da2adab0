package main // Entry point package

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/chat"
    "github.com/iliyamo/yoga-studio-booking/internal/clock"
    "github.com/iliyamo/yoga-studio-booking/internal/config"
    "github.com/iliyamo/yoga-studio-booking/internal/database"
    "github.com/iliyamo/yoga-studio-booking/internal/handler"
    "github.com/iliyamo/yoga-studio-booking/internal/middleware"
    "github.com/iliyamo/yoga-studio-booking/internal/observability"
    "github.com/iliyamo/yoga-studio-booking/internal/queue"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
    "github.com/iliyamo/yoga-studio-booking/internal/repository/memstore"
    "github.com/iliyamo/yoga-studio-booking/internal/router"
    "github.com/iliyamo/yoga-studio-booking/internal/scheduler"
    "github.com/iliyamo/yoga-studio-booking/internal/service"
)

// stores groups the storage backends for one driver.
type stores struct {
    sessions  service.SessionStore
    admin     service.SessionAdmin
    ledger    service.LedgerStore
    reviews   service.ReviewStore
    knowledge service.KnowledgeStore
    close     func() error
}

func main() {
    if err := run(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}

func run() error {
    cfg, err := config.Load()
    if err != nil {
        return err
    }
    logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
    if err != nil {
        return err
    }
    defer func() { _ = logger.Sync() }()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    if cfg.OTelEnabled {
        shutdown, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTelEndpoint)
        if err != nil {
            logger.Warn("tracing disabled", zap.Error(err))
        } else {
            defer func() { _ = shutdown(context.Background()) }()
        }
    }

    st, err := openStores(ctx, cfg, logger)
    if err != nil {
        return err
    }
    defer func() { _ = st.close() }()

    // Redis is optional: without it writes are not rate limited and
    // knowledge listings are not cached.
    rdb, err := config.NewRedisClient(ctx)
    if err != nil {
        logger.Warn("redis unavailable, rate limiting and caching off", zap.Error(err))
    } else {
        defer func() { _ = rdb.Close() }()
    }

    var pub service.EventPublisher
    if cfg.EventsEnabled && cfg.RabbitURL != "" {
        p := queue.NewPublisher(cfg.RabbitURL, logger)
        defer func() { _ = p.Close() }()
        pub = p
        consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventLogPath, logger)
        go func() {
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                logger.Error("event consumer stopped", zap.Error(err))
            }
        }()
    }

    clk := clock.Real()
    catalog := service.NewCatalog(st.sessions, clk, cfg.Location, logger)
    ledger := service.NewLedger(st.ledger, clk, pub, logger)
    reviews := service.NewReviews(st.reviews, st.sessions, st.ledger, service.ReviewPolicy(cfg.ReviewPolicy), clk, pub, logger)

    var assistant handler.Assistant
    if cfg.OpenAIKey != "" {
        client := chat.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAITimeout)
        tools := chat.NewTools()
        chat.RegisterBookingTools(tools, catalog, ledger)
        assistant = chat.NewAssistant(client, st.knowledge, tools, logger)
    } else {
        logger.Info("OPENAI_API_KEY not set, chat disabled")
    }

    e := router.New(logger)
    router.RegisterRoutes(e)
    router.RegisterAPI(e, router.Handlers{
        Classes:   handler.NewClassHandler(catalog),
        Bookings:  handler.NewBookingHandler(ledger),
        Reviews:   handler.NewReviewHandler(reviews),
        Knowledge: handler.NewKnowledgeHandler(service.NewKnowledge(st.knowledge)),
        Chat:      handler.NewChatHandler(assistant, logger),
        Limit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
        Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger),
    })

    sweeper := scheduler.NewSweeper(st.admin, clk, logger)
    if err := sweeper.Start(cfg.SweepSchedule); err != nil {
        return err
    }

    addr := ":" + cfg.Port
    errCh := make(chan error, 1)
    go func() {
        logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
            zap.String("store", cfg.StoreDriver), zap.String("timezone", cfg.Timezone))
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case <-ctx.Done():
        logger.Info("shutting down")
    case err := <-errCh:
        if err != nil {
            return err
        }
    }

    shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
    defer cancel()
    sweeper.Stop(shutdownCtx)
    if err := e.Shutdown(shutdownCtx); err != nil {
        logger.Error("http shutdown", zap.Error(err))
    }
    // let in-flight events reach the broker before it is closed
    ledger.Wait()
    reviews.Wait()
    return nil
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
    if cfg.StoreDriver == config.DriverMemory {
        logger.Warn("using in-memory store, data is lost on restart")
        m := memstore.New()
        return &stores{sessions: m, admin: m, ledger: m, reviews: m, knowledge: m, close: func() error { return nil }}, nil
    }

    db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        return nil, err
    }
    if cfg.DBMigrate {
        if err := database.Migrate(ctx, db); err != nil {
            _ = db.Close()
            return nil, err
        }
    }
    kb, err := repository.NewKnowledgeRepo(db)
    if err != nil {
        _ = db.Close()
        return nil, err
    }
    classes := repository.NewClassRepo(db)
    return &stores{
        sessions:  classes,
        admin:     classes,
        ledger:    repository.NewBookingRepo(db),
        reviews:   repository.NewReviewRepo(db),
        knowledge: kb,
        close:     db.Close,
    }, nil
}
