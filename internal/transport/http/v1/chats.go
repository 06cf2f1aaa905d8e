package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CreateChatRequest is the body of POST /v1/chats.
type CreateChatRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
}

// ListChats returns the requester's chat summaries, most recent first.
// GET /v1/chats
func (h *Handler) ListChats(c echo.Context) error {
	chats, err := h.service.ListChats(c.Request().Context(), requesterID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"chats": chats})
}

// CreateChat opens (or returns the existing) conversation with a user.
// POST /v1/chats
func (h *Handler) CreateChat(c echo.Context) error {
	var req CreateChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	chat, err := h.service.CreateChat(c.Request().Context(), requesterID(c), req.ReceiverID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, chat)
}

// GetChat returns a chat with its messages in creation order.
// GET /v1/chats/:chat_id
func (h *Handler) GetChat(c echo.Context) error {
	chat, err := h.service.GetChat(c.Request().Context(), c.Param("chat_id"), requesterID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, chat)
}

// MarkChatRead acknowledges the chat's latest state as read.
// PUT /v1/chats/read/:chat_id
func (h *Handler) MarkChatRead(c echo.Context) error {
	seenBy, err := h.service.MarkRead(c.Request().Context(), c.Param("chat_id"), requesterID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"seen_by": seenBy})
}
