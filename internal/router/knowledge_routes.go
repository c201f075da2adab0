package router

import "github.com/labstack/echo/v4"

// RegisterKnowledge registers knowledge-base listings, which are cached,
// and the rate limited AI chat endpoint.
func RegisterKnowledge(g *echo.Group, h Handlers) {
    cached := wrap(h.Cache)
    g.GET("/knowledge-bases", h.Knowledge.ListBases, cached...)
    g.GET("/knowledge-bases/:id/items", h.Knowledge.ListItems, cached...)

    g.POST("/ai/chat", h.Chat.Chat, wrap(h.Limit)...)
}
