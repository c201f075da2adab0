package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/chat"
    "github.com/iliyamo/yoga-studio-booking/internal/middleware"
)

// Assistant answers chat requests.  *chat.Assistant implements it.
type Assistant interface {
    Chat(ctx context.Context, req chat.Request) (*chat.Response, error)
}

// ChatHandler proxies questions to the AI assistant.  A nil Assistant
// means chat is not configured.
type ChatHandler struct {
    Assistant Assistant
    Logger    *zap.Logger
}

func NewChatHandler(a Assistant, logger *zap.Logger) *ChatHandler {
    return &ChatHandler{Assistant: a, Logger: logger.Named("chat")}
}

// Chat handles POST /ai/chat.
func (h *ChatHandler) Chat(c echo.Context) error {
    if h.Assistant == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Unavailable", "message": "chat is not configured"})
    }
    var req chat.Request
    if err := bind(c, &req); err != nil {
        return respondError(c, err)
    }
    // booking tools act for this user
    if req.UserID == "" {
        if uid := middleware.UserID(c); uid != "anon" {
            req.UserID = uid
        }
    }
    resp, err := h.Assistant.Chat(c.Request().Context(), req)
    if err != nil {
        h.Logger.Error("chat failed", zap.Error(err))
        switch {
        case errors.Is(err, chat.ErrInsufficientBalance):
            return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "InsufficientBalance", "message": "the AI service account is out of credit"})
        case errors.Is(err, chat.ErrUnauthorized):
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Misconfigured", "message": "the AI service rejected its credentials"})
        case errors.Is(err, chat.ErrRateLimited):
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "RateLimited", "message": "too many requests, try again shortly"})
        }
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "Upstream", "message": "the AI service failed to answer"})
    }
    return c.JSON(http.StatusOK, resp)
}
