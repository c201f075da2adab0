package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/yoga-studio-booking/internal/service"
)

// ClassHandler serves the timetable.  Nothing here is cached: every
// response carries live availability.
type ClassHandler struct {
    Catalog *service.Catalog
}

func NewClassHandler(catalog *service.Catalog) *ClassHandler {
    return &ClassHandler{Catalog: catalog}
}

// List handles GET /classes?start_date&end_date.
func (h *ClassHandler) List(c echo.Context) error {
    items, err := h.Catalog.SessionsBetween(c.Request().Context(), c.QueryParam("start_date"), c.QueryParam("end_date"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Schedule handles GET /classes/schedule?date.
func (h *ClassHandler) Schedule(c echo.Context) error {
    view, err := h.Catalog.WeekSchedule(c.Request().Context(), c.QueryParam("date"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, view)
}

// Get handles GET /classes/:id.
func (h *ClassHandler) Get(c echo.Context) error {
    id, err := uuidParam(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    s, err := h.Catalog.GetSession(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, s)
}
