package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/yoga-studio-booking/internal/service"
)

// KnowledgeHandler lists knowledge bases and their items.  Responses are
// safe to cache.
type KnowledgeHandler struct {
    Knowledge *service.Knowledge
}

func NewKnowledgeHandler(k *service.Knowledge) *KnowledgeHandler {
    return &KnowledgeHandler{Knowledge: k}
}

// ListBases handles GET /knowledge-bases?limit&offset.
func (h *KnowledgeHandler) ListBases(c echo.Context) error {
    limit, offset, err := pageParams(c)
    if err != nil {
        return respondError(c, err)
    }
    limit, offset, err = service.Page(limit, offset)
    if err != nil {
        return respondError(c, err)
    }
    items, err := h.Knowledge.ListBases(c.Request().Context(), limit, offset)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}

// ListItems handles GET /knowledge-bases/:id/items?limit&offset.
func (h *KnowledgeHandler) ListItems(c echo.Context) error {
    id, err := uuidParam(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    limit, offset, err := pageParams(c)
    if err != nil {
        return respondError(c, err)
    }
    limit, offset, err = service.Page(limit, offset)
    if err != nil {
        return respondError(c, err)
    }
    items, err := h.Knowledge.ListItems(c.Request().Context(), id, limit, offset)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}
