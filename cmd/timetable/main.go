// Command timetable loads class sessions into the studio database and
// adjusts session capacity.
//
//	timetable import -f timetable.yaml [--dry-run]
//	timetable capacity --id <class-uuid> --capacity 15
package main

import (
    "context"
    "errors"
    "fmt"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/google/uuid"
    "github.com/spf13/pflag"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/config"
    "github.com/iliyamo/yoga-studio-booking/internal/database"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
    "github.com/iliyamo/yoga-studio-booking/internal/timetable"
)

const usage = `usage:
  timetable import -f FILE [--dry-run]
  timetable capacity --id CLASS_ID --capacity N`

func main() {
    if len(os.Args) < 2 {
        fmt.Fprintln(os.Stderr, usage)
        os.Exit(2)
    }
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    var err error
    switch os.Args[1] {
    case "import":
        err = runImport(ctx, os.Args[2:])
    case "capacity":
        err = runCapacity(ctx, os.Args[2:])
    case "-h", "--help", "help":
        fmt.Println(usage)
        return
    default:
        err = fmt.Errorf("unknown command %q\n%s", os.Args[1], usage)
    }
    if err != nil {
        fmt.Fprintln(os.Stderr, "timetable:", err)
        os.Exit(1)
    }
}

func runImport(ctx context.Context, args []string) error {
    flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
    file := flags.StringP("file", "f", "", "timetable YAML file")
    dryRun := flags.Bool("dry-run", false, "parse and print without writing")
    if err := flags.Parse(args); err != nil {
        return err
    }
    if *file == "" {
        return errors.New("--file is required")
    }

    cfg, logger, err := setup()
    if err != nil {
        return err
    }
    defer func() { _ = logger.Sync() }()

    f, err := os.Open(*file)
    if err != nil {
        return err
    }
    defer f.Close()
    sessions, err := timetable.Parse(f, cfg.Location, time.Now())
    if err != nil {
        return err
    }
    if *dryRun {
        for _, s := range sessions {
            fmt.Printf("%s  %s-%s  %-24s %-12s cap %d\n",
                s.StartTime.Format("2006-01-02 Mon"), s.StartTime.Format("15:04"), s.EndTime.Format("15:04"),
                s.Name, s.Instructor, s.Capacity)
        }
        return nil
    }

    db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        return err
    }
    defer db.Close()
    if cfg.DBMigrate {
        if err := database.Migrate(ctx, db); err != nil {
            return err
        }
    }
    repo := repository.NewClassRepo(db)
    for i := range sessions {
        if err := repo.CreateSession(ctx, &sessions[i]); err != nil {
            return fmt.Errorf("after %d of %d sessions: %w", i, len(sessions), err)
        }
        logger.Info("session created", zap.Stringer("class_id", sessions[i].ID),
            zap.String("name", sessions[i].Name), zap.Time("start", sessions[i].StartTime))
    }
    logger.Info("import finished", zap.Int("sessions", len(sessions)))
    return nil
}

func runCapacity(ctx context.Context, args []string) error {
    flags := pflag.NewFlagSet("capacity", pflag.ContinueOnError)
    idStr := flags.String("id", "", "class session id")
    capacity := flags.Int("capacity", -1, "new capacity")
    if err := flags.Parse(args); err != nil {
        return err
    }
    id, err := uuid.Parse(*idStr)
    if err != nil {
        return fmt.Errorf("--id: %w", err)
    }
    if *capacity < 0 {
        return errors.New("--capacity must be zero or more")
    }

    cfg, logger, err := setup()
    if err != nil {
        return err
    }
    defer func() { _ = logger.Sync() }()

    db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        return err
    }
    defer db.Close()
    if err := repository.NewClassRepo(db).UpdateCapacity(ctx, id, *capacity, time.Now()); err != nil {
        if repository.KindOf(err) == repository.KindConflict {
            return fmt.Errorf("more confirmed bookings than %d: %w", *capacity, err)
        }
        return err
    }
    logger.Info("capacity updated", zap.Stringer("class_id", id), zap.Int("capacity", *capacity))
    return nil
}

func setup() (config.Config, *zap.Logger, error) {
    cfg, err := config.Load()
    if err != nil {
        return config.Config{}, nil, err
    }
    if cfg.StoreDriver != config.DriverMySQL {
        return config.Config{}, nil, fmt.Errorf("STORE_DRIVER=%s: timetable only writes to mysql", cfg.StoreDriver)
    }
    logger, err := config.NewLogger(cfg.LogLevel, "console")
    if err != nil {
        return config.Config{}, nil, err
    }
    return cfg, logger, nil
}
