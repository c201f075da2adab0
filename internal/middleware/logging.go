package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// RequestLogger writes one structured line per request.  5xx responses are
// logged at Error, 4xx at Warn, the rest at Info.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
    logger = logger.Named("http")
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            req, res := c.Request(), c.Response()
            lvl := zapcore.InfoLevel
            switch {
            case res.Status >= 500:
                lvl = zapcore.ErrorLevel
            case res.Status >= 400:
                lvl = zapcore.WarnLevel
            }
            fields := []zap.Field{
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.String("route", c.Path()),
                zap.Int("status", res.Status),
                zap.Int64("bytes", res.Size),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
                zap.String("user_id", UserID(c)),
            }
            if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
                fields = append(fields, zap.String("request_id", id))
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }
            logger.Log(lvl, "request", fields...)
            return nil
        }
    }
}
