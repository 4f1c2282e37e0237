package dto

import (
	"time"

	"github.com/google/uuid"
)

type LogListResponse struct {
	Id        string                 `json:"id"` // md5 of the log line
	Level     string                 `json:"level"`
	Module    string                 `json:"module"`
	Message   string                 `json:"message"`
	Timestamp string                 `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type ActivityEventResponse struct {
	Id        uuid.UUID              `json:"id"`
	Type      string                 `json:"type"`
	Action    string                 `json:"action"`
	RefId     *uuid.UUID             `json:"ref_id,omitempty"`
	Meta      map[string]interface{} `json:"meta"`
	CreatedAt time.Time              `json:"created_at"`
}
