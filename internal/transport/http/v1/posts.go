package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"homegrid/internal/domain"
)

// PostRequest is the body of POST /v1/posts and PUT /v1/posts/:post_id.
type PostRequest struct {
	Title    string          `json:"title" validate:"required"`
	Price    int64           `json:"price" validate:"gte=0"`
	City     string          `json:"city" validate:"required"`
	Address  string          `json:"address"`
	Bedroom  int             `json:"bedroom" validate:"gte=0"`
	Bathroom int             `json:"bathroom" validate:"gte=0"`
	Type     string          `json:"type" validate:"required,oneof=buy rent"`
	Property string          `json:"property" validate:"required,oneof=apartment house condo land"`
	Images   []string        `json:"images"`
	Detail   json.RawMessage `json:"detail"`
}

func (r *PostRequest) toPost() *domain.Post {
	return &domain.Post{
		Title:    r.Title,
		Price:    r.Price,
		City:     r.City,
		Address:  r.Address,
		Bedroom:  r.Bedroom,
		Bathroom: r.Bathroom,
		Type:     domain.PostType(r.Type),
		Property: domain.PropertyKind(r.Property),
		Images:   r.Images,
		Detail:   r.Detail,
	}
}

// ListPosts returns listings matching the query filters.
// GET /v1/posts?city=&type=&property=&bedroom=&minPrice=&maxPrice=
func (h *Handler) ListPosts(c echo.Context) error {
	filter := domain.PostFilter{
		City:     c.QueryParam("city"),
		Type:     domain.PostType(c.QueryParam("type")),
		Property: domain.PropertyKind(c.QueryParam("property")),
	}
	if v := c.QueryParam("bedroom"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Bedroom = n
		}
	}
	if v := c.QueryParam("minPrice"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinPrice = n
		}
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxPrice = n
		}
	}

	posts, err := h.service.ListPosts(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"posts": posts})
}

// GetPost returns a listing; is_saved reflects the signed-in requester.
// GET /v1/posts/:post_id
func (h *Handler) GetPost(c echo.Context) error {
	post, err := h.service.GetPost(c.Request().Context(), c.Param("post_id"), requesterID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// CreatePost creates a listing owned by the requester.
// POST /v1/posts
func (h *Handler) CreatePost(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	post, err := h.service.CreatePost(c.Request().Context(), requesterID(c), req.toPost())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, post)
}

// UpdatePost replaces a listing's mutable fields. Owner only.
// PUT /v1/posts/:post_id
func (h *Handler) UpdatePost(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	post, err := h.service.UpdatePost(c.Request().Context(), c.Param("post_id"), requesterID(c), req.toPost())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost removes a listing. Owner only.
// DELETE /v1/posts/:post_id
func (h *Handler) DeletePost(c echo.Context) error {
	if err := h.service.DeletePost(c.Request().Context(), c.Param("post_id"), requesterID(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SavePost toggles the requester's saved marker on a listing.
// POST /v1/posts/:post_id/save
func (h *Handler) SavePost(c echo.Context) error {
	saved, err := h.service.SavePost(c.Request().Context(), c.Param("post_id"), requesterID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"saved": saved})
}
