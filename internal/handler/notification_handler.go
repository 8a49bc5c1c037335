package handler

import (
	"io"

	"github.com/UniNest-Housing/service-payment/internal/auth"
	"github.com/UniNest-Housing/service-payment/internal/middleware"
	"github.com/UniNest-Housing/service-payment/internal/notify"
	"github.com/UniNest-Housing/service-payment/internal/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler streams per-user payment notifications over SSE.
type NotificationHandler struct {
	hub    *notify.Hub
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(hub *notify.Hub, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{hub: hub, logger: logger}
}

// RegisterRoutes registers notification routes on the given router group.
func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware(jwtManager))
	{
		notifications.GET("/stream", h.Stream)
	}
}

// Stream handles GET /api/v1/notifications/stream. The connection stays open
// until the client disconnects; each notification for the authenticated user
// is written as one SSE event.
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	ch := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(userID, ch)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	h.logger.Debug("notification stream opened", zap.String("user_id", userID.String()))

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case n, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent(n.Type, n)
			return true
		case <-clientGone:
			return false
		}
	})

	h.logger.Debug("notification stream closed", zap.String("user_id", userID.String()))
}
