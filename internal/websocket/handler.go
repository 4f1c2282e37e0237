package websocket

import (
	"context"

	"well-bot-be/internal/dto"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one session connection until it closes
func ServeWs(ctx context.Context, hub *Hub, c *websocket.Conn, turns TurnHandler, userID, sessionID string) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		UserID:    userID,
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		turns:     turns,
	}
	client.Hub.register <- client

	ctx, cancel := context.WithCancel(ctx)
	queue := make(chan dto.WsTurnMessage, turnQueueSize)

	go client.writePump()
	go client.turnLoop(ctx, queue)
	client.readPump(cancel, queue) // Run readPump in current goroutine (handler)
}
