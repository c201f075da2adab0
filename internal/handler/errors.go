package handler

import (
    "errors"
    "fmt"
    "net/http"
    "strconv"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

// statusByKind is the only place error kinds become HTTP statuses.
var statusByKind = map[string]int{
    repository.KindNotFound:         http.StatusNotFound,
    repository.KindFull:             http.StatusConflict,
    repository.KindDuplicateBooking: http.StatusConflict,
    repository.KindAlreadyCancelled: http.StatusConflict,
    repository.KindNotEligible:      http.StatusForbidden,
    repository.KindDuplicateReview:  http.StatusConflict,
    repository.KindInvalidInput:     http.StatusBadRequest,
    repository.KindConflict:         http.StatusConflict,
    repository.KindSessionClosed:    http.StatusConflict,
}

// respondError writes {"error": kind, "message": text}.  Internal errors
// never leak their text.
func respondError(c echo.Context, err error) error {
    kind := repository.KindOf(err)
    status, ok := statusByKind[kind]
    if !ok {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": repository.KindInternal, "message": "internal error"})
    }
    return c.JSON(status, echo.Map{"error": kind, "message": err.Error()})
}

func invalid(format string, args ...any) error {
    return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), repository.ErrInvalidInput)
}

// uuidParam parses path parameter name.
func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
    id, err := uuid.Parse(c.Param(name))
    if err != nil {
        return uuid.Nil, invalid("%s %q is not a uuid", name, c.Param(name))
    }
    return id, nil
}

// pageParams reads limit and offset; absent values are 0.
func pageParams(c echo.Context) (int, int, error) {
    limit, err := intQuery(c, "limit")
    if err != nil {
        return 0, 0, err
    }
    offset, err := intQuery(c, "offset")
    if err != nil {
        return 0, 0, err
    }
    return limit, offset, nil
}

func intQuery(c echo.Context, name string) (int, error) {
    s := c.QueryParam(name)
    if s == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        return 0, invalid("%s must be an integer", name)
    }
    return n, nil
}

// ErrorHandler renders errors that escape handlers, such as unknown routes
// and panics caught by Recover, in the same JSON shape.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        var he *echo.HTTPError
        if errors.As(err, &he) {
            kind := repository.KindInternal
            switch he.Code {
            case http.StatusNotFound:
                kind = repository.KindNotFound
            case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusUnsupportedMediaType:
                kind = repository.KindInvalidInput
            }
            msg := http.StatusText(he.Code)
            if m, ok := he.Message.(string); ok {
                msg = m
            }
            _ = c.JSON(he.Code, echo.Map{"error": kind, "message": msg})
            return
        }
        logger.Error("unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
        _ = respondError(c, err)
    }
}
