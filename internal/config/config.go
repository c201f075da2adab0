package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Store drivers.
const (
    DriverMySQL  = "mysql"
    DriverMemory = "memory"
)

// Review policies.
const (
    ReviewAttended   = "attended"
    ReviewAnyBooking = "any_booking"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Redis, rate limiting and caching have their
// own loaders next to this one.
type Config struct {
    Env             string         // application environment (dev, prod)
    Port            string         // HTTP port to listen on
    ShutdownTimeout time.Duration  // grace period for in-flight requests
    StoreDriver     string         // mysql or memory
    DBUser          string         // database username
    DBPass          string         // database password (optional)
    DBHost          string         // database host address
    DBPort          string         // database port number
    DBName          string         // database name
    DBMigrate       bool           // create tables at startup
    Timezone        string         // studio timezone name
    Location        *time.Location // loaded Timezone
    ReviewPolicy    string         // attended or any_booking
    LogLevel        string         // debug, info, warn, error
    LogFormat       string         // json or console
    RabbitURL       string         // AMQP broker URL; empty disables events
    EventsEnabled   bool           // publish booking events
    EventLogPath    string         // where the consumer appends events
    SweepSchedule   string         // cron spec for the completion sweeper
    OpenAIKey       string         // chat completion API key; empty disables chat
    OpenAIBaseURL   string         // OpenAI-compatible endpoint
    OpenAIModel     string         // model name
    OpenAITimeout   time.Duration  // per-request timeout
    OTelEnabled     bool           // export traces
    OTelEndpoint    string         // OTLP/HTTP collector host:port
    ServiceName     string         // resource service.name
}

// Load reads .env when present, then the environment.  Missing required
// variables are reported together in one error.
func Load() (Config, error) {
    _ = godotenv.Load()

    var missing []string
    must := func(key string) string {
        v := getenv(key, "")
        if v == "" {
            missing = append(missing, key)
        }
        return v
    }

    cfg := Config{
        Env:             getenv("APP_ENV", "dev"),
        Port:            getenv("APP_PORT", "8080"),
        ShutdownTimeout: envDur("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
        StoreDriver:     strings.ToLower(getenv("STORE_DRIVER", DriverMySQL)),
        DBPass:          getenv("DB_PASS", ""),
        DBMigrate:       envBool("DB_MIGRATE", true),
        Timezone:        getenv("APP_TIMEZONE", "Asia/Shanghai"),
        ReviewPolicy:    strings.ToLower(getenv("REVIEW_POLICY", ReviewAttended)),
        LogLevel:        getenv("LOG_LEVEL", "info"),
        LogFormat:       getenv("LOG_FORMAT", "json"),
        RabbitURL:       getenv("RABBITMQ_URL", ""),
        EventsEnabled:   envBool("EVENTS_ENABLED", true),
        EventLogPath:    getenv("EVENT_LOG_PATH", "logs/booking.log"),
        SweepSchedule:   getenv("SWEEP_SCHEDULE", "@every 5m"),
        OpenAIKey:       getenv("OPENAI_API_KEY", ""),
        OpenAIBaseURL:   getenv("OPENAI_BASE_URL", "https://api.deepseek.com/v1"),
        OpenAIModel:     getenv("OPENAI_MODEL", "deepseek-chat"),
        OpenAITimeout:   envDur("OPENAI_TIMEOUT", 60*time.Second),
        OTelEnabled:     envBool("OTEL_ENABLED", false),
        OTelEndpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
        ServiceName:     getenv("OTEL_SERVICE_NAME", "yoga-studio-booking"),
    }
    if cfg.StoreDriver == DriverMySQL {
        cfg.DBUser = must("DB_USER")
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    if len(missing) > 0 {
        return cfg, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
    }
    if err := cfg.validate(); err != nil {
        return cfg, err
    }
    loc, err := time.LoadLocation(cfg.Timezone)
    if err != nil {
        return cfg, fmt.Errorf("APP_TIMEZONE %q: %w", cfg.Timezone, err)
    }
    cfg.Location = loc
    return cfg, nil
}

func (c Config) validate() error {
    switch c.StoreDriver {
    case DriverMySQL, DriverMemory:
    default:
        return fmt.Errorf("STORE_DRIVER %q: want mysql or memory", c.StoreDriver)
    }
    switch c.ReviewPolicy {
    case ReviewAttended, ReviewAnyBooking:
    default:
        return fmt.Errorf("REVIEW_POLICY %q: want attended or any_booking", c.ReviewPolicy)
    }
    if c.ShutdownTimeout <= 0 {
        return errors.New("APP_SHUTDOWN_TIMEOUT must be positive")
    }
    return nil
}
