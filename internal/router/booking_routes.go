package router

import "github.com/labstack/echo/v4"

// RegisterBooking registers the timetable, booking and review endpoints.
// Static segments (schedule, bookings) win over :id in Echo's router.
// Writes are rate limited; nothing here is cached.
func RegisterBooking(g *echo.Group, h Handlers) {
    limited := wrap(h.Limit)

    g.GET("/classes", h.Classes.List)
    g.GET("/classes/schedule", h.Classes.Schedule)
    g.GET("/classes/:id", h.Classes.Get)

    g.POST("/classes/:id/book", h.Bookings.Book, limited...)
    g.DELETE("/classes/bookings/:id", h.Bookings.Cancel)
    g.GET("/classes/bookings", h.Bookings.List)

    g.POST("/classes/:id/reviews", h.Reviews.Create, limited...)
    g.GET("/classes/:id/reviews", h.Reviews.List)
    g.GET("/classes/:id/reviews/mine", h.Reviews.Mine)
}
