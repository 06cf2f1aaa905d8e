// Package http provides the HTTP server for the marketplace API.
package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"homegrid/internal/auth"
	"homegrid/internal/service"
	v1 "homegrid/internal/transport/http/v1"
	"homegrid/internal/ws"
)

// echoValidator adapts go-playground/validator to echo's Validator.
type echoValidator struct {
	validate *validator.Validate
}

func (v *echoValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// NewServer creates and configures the HTTP server, including the
// WebSocket endpoint for the push channel.
func NewServer(svc *service.Service, wsServer *ws.Server, tokens *auth.TokenIssuer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Validator = &echoValidator{validate: validator.New()}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc, tokens)
	v1Handler.RegisterRoutes(e)

	e.GET("/ws", wsServer.HandleWebSocket)

	return e
}
