package websocket

import (
	"context"
	"encoding/json"
	"time"

	"well-bot-be/internal/dto"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/turn"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	turnQueueSize  = 8
)

// TurnHandler runs one utterance through the turn pipeline
type TurnHandler interface {
	Handle(ctx context.Context, req turn.Request) card.Card
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	UserID    string
	SessionID string

	// Buffered channel of outbound messages. Closed by the hub.
	Send chan []byte
	// set under Hub.mu when Send is closed
	closed bool

	turns TurnHandler
}

// readPump reads turn frames and hands them to turnLoop in order. Returning cancels
// ctx, which aborts the turn in flight.
func (c *Client) readPump(cancel context.CancelFunc, queue chan<- dto.WsTurnMessage) {
	defer func() {
		cancel()
		close(queue)
		c.Hub.drop(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}

		var msg dto.WsTurnMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply("", card.Fail(turn.ToolTurn, "Validation Error", "Invalid message format", card.CodeValidation))
			continue
		}
		if msg.Type != "" && msg.Type != "turn" {
			continue
		}
		select {
		case queue <- msg:
		default:
			c.reply(msg.TraceId, card.Fail(turn.ToolTurn, "Busy", "Please wait for the previous reply.", card.CodeTurnFailed))
		}
	}
}

// turnLoop runs queued turns one at a time
func (c *Client) turnLoop(ctx context.Context, queue <-chan dto.WsTurnMessage) {
	for msg := range queue {
		if ctx.Err() != nil {
			continue
		}
		traceID := msg.TraceId
		if traceID == "" {
			traceID = uuid.NewString()
		}
		env := card.NewEnvelope(traceID, c.UserID, "", c.SessionID, msg.Args)
		res := c.turns.Handle(ctx, turn.Request{Envelope: env, Text: msg.Text, Language: msg.Language})
		if ctx.Err() != nil {
			return
		}
		c.reply(traceID, res)
	}
}

func (c *Client) reply(traceID string, res card.Card) {
	data, err := json.Marshal(dto.WsCardMessage{
		Type:      "card",
		SessionId: c.SessionID,
		TraceId:   traceID,
		Data:      res,
	})
	if err != nil {
		return
	}
	c.Hub.send(c, data)
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
