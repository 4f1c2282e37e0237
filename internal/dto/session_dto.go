package dto

import "time"

type SessionStateResponse struct {
	SessionId    string    `json:"session_id"`
	State        string    `json:"state"`
	Suspended    bool      `json:"suspended"`
	LastActivity time.Time `json:"last_activity"`
}

type EndSessionRequest struct {
	Reason string `json:"reason" validate:"omitempty,oneof=manual inactivity"`
}
