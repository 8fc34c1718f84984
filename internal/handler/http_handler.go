package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/chesko21/tiktok-live-connector/internal/service"
	"github.com/chesko21/tiktok-live-connector/internal/upstream"
	"github.com/chesko21/tiktok-live-connector/pkg/log"
	"github.com/chesko21/tiktok-live-connector/pkg/response"
)

// Handler handles HTTP requests for the relay.
type Handler struct {
	relay service.RelayService
}

// NewHandler creates a new HTTP handler.
func NewHandler(relay service.RelayService) *Handler {
	return &Handler{relay: relay}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/connect", h.Connect)
}

// Connect ensures an upstream subscription exists for the requested
// streamer. Connecting twice for the same streamer is a no-op success.
func (h *Handler) Connect(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	username := c.Query("username")
	if username == "" {
		response.BadRequest(c, "Username required")
		return
	}

	if err := h.relay.EnsureConnected(ctx, username); err != nil {
		switch {
		case errors.Is(err, upstream.ErrUserOffline):
			l.Info().Str(log.FieldStreamer, username).Msg("streamer offline")
			response.BadRequest(c, fmt.Sprintf("User %s is offline or not currently live.", username))
		case errors.Is(err, upstream.ErrUsernameInvalid):
			response.BadRequest(c, fmt.Sprintf("Invalid username %s", username))
		default:
			l.Error().Err(err).Str(log.FieldStreamer, username).Msg("failed to connect upstream")
			response.InternalError(c, err.Error())
		}
		return
	}

	response.OK(c, fmt.Sprintf("Connected to %s", username))
}
