// Package v1 provides the v1 REST handlers for the marketplace.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"homegrid/internal/auth"
	"homegrid/internal/domain"
	"homegrid/internal/service"
)

// TokenCookie is the cookie carrying the signed session token.
const TokenCookie = "token"

// userIDKey is the echo context key holding the authenticated user id.
const userIDKey = "user_id"

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	tokens  *auth.TokenIssuer
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, tokens *auth.TokenIssuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// RegisterRoutes registers the v1 routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/auth/register", h.RegisterUser)
	e.POST("/v1/auth/login", h.Login)
	e.POST("/v1/auth/logout", h.Logout)

	e.GET("/v1/users/:user_id", h.GetUser)

	// Listings: reads are public, identity is optional on point lookups.
	e.GET("/v1/posts", h.ListPosts, h.optionalAuth)
	e.GET("/v1/posts/:post_id", h.GetPost, h.optionalAuth)
	e.POST("/v1/posts", h.CreatePost, h.requireAuth)
	e.PUT("/v1/posts/:post_id", h.UpdatePost, h.requireAuth)
	e.DELETE("/v1/posts/:post_id", h.DeletePost, h.requireAuth)
	e.POST("/v1/posts/:post_id/save", h.SavePost, h.requireAuth)

	// Chat
	e.GET("/v1/chats", h.ListChats, h.requireAuth)
	e.POST("/v1/chats", h.CreateChat, h.requireAuth)
	e.GET("/v1/chats/:chat_id", h.GetChat, h.requireAuth)
	e.PUT("/v1/chats/read/:chat_id", h.MarkChatRead, h.requireAuth)
	e.POST("/v1/messages/:chat_id", h.AppendMessage, h.requireAuth)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// requireAuth resolves the token cookie to a user id or rejects with 401.
func (h *Handler) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := h.identity(c)
		if err != nil || userID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}
		c.Set(userIDKey, userID)
		return next(c)
	}
}

// optionalAuth resolves the token cookie when present; anonymous requests
// proceed without an identity.
func (h *Handler) optionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if userID, err := h.identity(c); err == nil && userID != "" {
			c.Set(userIDKey, userID)
		}
		return next(c)
	}
}

func (h *Handler) identity(c echo.Context) (string, error) {
	cookie, err := c.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return "", err
	}
	return h.tokens.Verify(cookie.Value)
}

// requesterID returns the authenticated user id, or "" when anonymous.
func requesterID(c echo.Context) string {
	userID, _ := c.Get(userIDKey).(string)
	return userID
}

// writeError maps domain errors to HTTP statuses.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
