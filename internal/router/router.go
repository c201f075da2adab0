package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/handler"
    "github.com/iliyamo/yoga-studio-booking/internal/middleware"
)

// APIPrefix is where every versioned route lives.
const APIPrefix = "/api/v1"

// New returns an Echo instance with the validator, the JSON error handler
// and the middleware every request passes through.
func New(logger *zap.Logger) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.Validator = handler.NewValidator()
    e.HTTPErrorHandler = handler.ErrorHandler(logger)

    e.Use(echomw.Recover())
    e.Use(echomw.RequestID())
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins: []string{"*"},
        AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.HeaderUserID},
    }))
    e.Use(middleware.Tracing())
    e.Use(middleware.Identity())
    e.Use(middleware.RequestLogger(logger))
    return e
}

// RegisterRoutes registers routes that sit outside the API prefix.  The
// health check touches no dependency.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// Handlers bundles everything RegisterAPI mounts.  Limit and Cache may be
// nil, in which case those routes run unwrapped.
type Handlers struct {
    Classes   *handler.ClassHandler
    Bookings  *handler.BookingHandler
    Reviews   *handler.ReviewHandler
    Knowledge *handler.KnowledgeHandler
    Chat      *handler.ChatHandler

    Limit echo.MiddlewareFunc // token bucket for writes
    Cache echo.MiddlewareFunc // response cache for knowledge listings
}

// RegisterAPI mounts every versioned route under APIPrefix.
func RegisterAPI(e *echo.Echo, h Handlers) {
    g := e.Group(APIPrefix)
    RegisterBooking(g, h)
    RegisterKnowledge(g, h)
}

func wrap(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
    if mw == nil {
        return nil
    }
    return []echo.MiddlewareFunc{mw}
}
