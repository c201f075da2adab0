package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/yoga-studio-booking/internal/service"
)

// BookingHandler exposes the ledger.
type BookingHandler struct {
    Ledger *service.Ledger
}

func NewBookingHandler(ledger *service.Ledger) *BookingHandler {
    return &BookingHandler{Ledger: ledger}
}

type bookRequest struct {
    UserID   string `json:"user_id" validate:"required,max=128"`
    UserName string `json:"user_name" validate:"max=255"`
}

// Book handles POST /classes/:id/book and returns 201 with the booking.
func (h *BookingHandler) Book(c echo.Context) error {
    classID, err := uuidParam(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    var req bookRequest
    if err := bind(c, &req); err != nil {
        return respondError(c, err)
    }
    b, err := h.Ledger.Book(c.Request().Context(), classID, req.UserID, req.UserName)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, b)
}

// Cancel handles DELETE /classes/bookings/:id and returns 204.
func (h *BookingHandler) Cancel(c echo.Context) error {
    id, err := uuidParam(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    if _, err := h.Ledger.Cancel(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// List handles GET /classes/bookings?user_id&limit&offset.
func (h *BookingHandler) List(c echo.Context) error {
    limit, offset, err := pageParams(c)
    if err != nil {
        return respondError(c, err)
    }
    limit, offset, err = service.Page(limit, offset)
    if err != nil {
        return respondError(c, err)
    }
    items, err := h.Ledger.ListForUser(c.Request().Context(), c.QueryParam("user_id"), limit, offset)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}
