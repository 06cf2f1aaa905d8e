package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AppendMessageRequest is the body of POST /v1/messages/:chat_id.
type AppendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// AppendMessage appends a message to a chat. The response is the stored
// message; push delivery to the other participant is best-effort and
// does not affect the response.
// POST /v1/messages/:chat_id
func (h *Handler) AppendMessage(c echo.Context) error {
	var req AppendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	msg, err := h.service.AppendMessage(c.Request().Context(), c.Param("chat_id"), requesterID(c), req.Text)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}
