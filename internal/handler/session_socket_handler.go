package handler

import (
	"context"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/pkg/serverutils"
	internalWS "well-bot-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// AuthConfig selects how the handshake token is checked
type AuthConfig struct {
	Mode      string
	StaticKey string
	JwtSecret string
}

type SessionSocketHandler struct {
	hub    *internalWS.Hub
	turns  internalWS.TurnHandler
	auth   AuthConfig
	ctx    context.Context
	logger logger.ILogger
}

// NewSessionSocketHandler serves duplex turns. Connections are closed when ctx ends.
func NewSessionSocketHandler(ctx context.Context, hub *internalWS.Hub, turns internalWS.TurnHandler, auth AuthConfig, log logger.ILogger) *SessionSocketHandler {
	return &SessionSocketHandler{
		hub:    hub,
		turns:  turns,
		auth:   auth,
		ctx:    ctx,
		logger: log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *SessionSocketHandler) ServeWs(c *fiber.Ctx) error {
	// Priority 1: Query Param (Browser standard)
	tokenStr := c.Query("token")

	// Priority 2: Authorization Header (Tooling/Non-browser standard)
	if tokenStr == "" {
		tokenStr = serverutils.BearerToken(c)
	}

	tokenUser, err := serverutils.Authenticate(h.auth.Mode, h.auth.StaticKey, h.auth.JwtSecret, tokenStr)
	if err != nil {
		h.logger.Warn("SessionSocketHandler", "Rejected WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	sessionID := c.Params("session_id")
	userID := c.Query("user_id")
	if tokenUser != "" {
		if userID != "" && userID != tokenUser {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "user_id does not match token"})
		}
		userID = tokenUser
	}
	if sessionID == "" || userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id and user_id are required"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			fields := map[string]interface{}{"user_id": userID, "session_id": sessionID}
			h.logger.Info("SessionSocketHandler", "Starting WebSocket session", fields)
			internalWS.ServeWs(h.ctx, h.hub, conn, h.turns, userID, sessionID)
			h.logger.Info("SessionSocketHandler", "WebSocket session ended", fields)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the socket route.
func (h *SessionSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/:session_id", h.ServeWs)
}
