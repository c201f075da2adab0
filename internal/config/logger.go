package config

import (
    "fmt"

    "go.uber.org/zap"
)

// NewLogger builds the process logger.  Level "debug" selects zap's
// development preset; format is "json" or "console".
func NewLogger(level, format string) (*zap.Logger, error) {
    var zc zap.Config
    if level == "debug" {
        zc = zap.NewDevelopmentConfig()
    } else {
        zc = zap.NewProductionConfig()
    }
    if format == "console" {
        zc.Encoding = "console"
    } else {
        zc.Encoding = "json"
    }
    lvl, err := zap.ParseAtomicLevel(level)
    if err != nil {
        return nil, fmt.Errorf("parse log level: %w", err)
    }
    zc.Level = lvl
    logger, err := zc.Build()
    if err != nil {
        return nil, fmt.Errorf("build logger: %w", err)
    }
    return logger, nil
}
