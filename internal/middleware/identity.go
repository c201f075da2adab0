package middleware

// identity.go resolves the opaque user identifier the client supplies.
// There is no authentication: the value only scopes rate limits and log
// lines.  Handlers still read user_id from the body or query they document.

import (
    "strings"

    "github.com/labstack/echo/v4"
)

// HeaderUserID carries the client's user identifier.
const HeaderUserID = "X-User-ID"

const userIDKey = "user_id"

// Identity stores the caller's user id in the context under "user_id".
// The header wins over the user_id query parameter.
func Identity() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
            if uid == "" {
                uid = strings.TrimSpace(c.QueryParam("user_id"))
            }
            if uid != "" {
                c.Set(userIDKey, uid)
            }
            return next(c)
        }
    }
}

// UserID returns the identifier stored by Identity, or "anon".
func UserID(c echo.Context) string {
    if s, ok := c.Get(userIDKey).(string); ok && s != "" {
        return s
    }
    return "anon"
}
