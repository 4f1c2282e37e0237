package dto

import "well-bot-be/pkg/card"

// ChatTurnRequest is the body of POST /api/llm/chat/turn
type ChatTurnRequest struct {
	Text           string                 `json:"text" validate:"required"`
	UserId         string                 `json:"user_id" validate:"required"`
	ConversationId string                 `json:"conversation_id"`
	SessionId      string                 `json:"session_id"`
	TraceId        string                 `json:"trace_id"`
	Language       string                 `json:"lang"`
	Args           map[string]interface{} `json:"args"`
}

// Envelope builds the request envelope, generating a trace id when absent
func (r ChatTurnRequest) Envelope(traceId string) card.Envelope {
	if r.TraceId != "" {
		traceId = r.TraceId
	}
	return card.NewEnvelope(traceId, r.UserId, r.ConversationId, r.SessionId, r.Args)
}

// WsTurnMessage is one client frame on the websocket
type WsTurnMessage struct {
	Type     string                 `json:"type"` // "turn" or "ping"
	Text     string                 `json:"text"`
	TraceId  string                 `json:"trace_id"`
	Language string                 `json:"lang"`
	Args     map[string]interface{} `json:"args"`
}

// WsCardMessage is one server frame on the websocket
type WsCardMessage struct {
	Type      string    `json:"type"` // "card"
	SessionId string    `json:"session_id"`
	TraceId   string    `json:"trace_id,omitempty"`
	Async     bool      `json:"async"`
	Data      card.Card `json:"data"`
}
