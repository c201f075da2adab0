package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/yoga-studio-booking/internal/service"
)

// ReviewHandler exposes class reviews.
type ReviewHandler struct {
    Reviews *service.Reviews
}

func NewReviewHandler(reviews *service.Reviews) *ReviewHandler {
    return &ReviewHandler{Reviews: reviews}
}

type reviewRequest struct {
    UserID   string   `json:"user_id" validate:"required,max=128"`
    UserName string   `json:"user_name" validate:"max=255"`
    Rating   int      `json:"rating"`
    Content  string   `json:"content" validate:"max=2000"`
    Images   []string `json:"images" validate:"max=9,dive,max=1024"`
}

// Create handles POST /classes/:id/reviews and returns 201 with the review.
func (h *ReviewHandler) Create(c echo.Context) error {
    classID, err := uuidParam(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    var req reviewRequest
    if err := bind(c, &req); err != nil {
        return respondError(c, err)
    }
    rv, err := h.Reviews.Create(c.Request().Context(), service.ReviewInput{
        ClassID:  classID,
        UserID:   req.UserID,
        UserName: req.UserName,
        Rating:   req.Rating,
        Content:  req.Content,
        Images:   req.Images,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, rv)
}

// List handles GET /classes/:id/reviews?limit&offset.
func (h *ReviewHandler) List(c echo.Context) error {
    classID, err := uuidParam(c, "id")
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
    items, err := h.Reviews.ListForClass(c.Request().Context(), classID, limit, offset)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}

// Mine handles GET /classes/:id/reviews/mine?user_id.  A missing review is
// {"item": null}, not 404.
func (h *ReviewHandler) Mine(c echo.Context) error {
    classID, err := uuidParam(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    rv, err := h.Reviews.GetForUser(c.Request().Context(), classID, c.QueryParam("user_id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": rv})
}
