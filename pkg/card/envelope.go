package card

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Envelope is the request envelope accepted by every entry point
type Envelope struct {
	TraceId        string                 `json:"trace_id" validate:"required"`
	UserId         string                 `json:"user_id" validate:"required"`
	ConversationId string                 `json:"conversation_id,omitempty"`
	SessionId      string                 `json:"session_id,omitempty"`
	Args           map[string]interface{} `json:"args"`
	TsUtc          string                 `json:"ts_utc" validate:"required"`
}

// NewEnvelope builds an envelope stamped with the current UTC time
func NewEnvelope(traceId, userId, conversationId, sessionId string, args map[string]interface{}) Envelope {
	if args == nil {
		args = map[string]interface{}{}
	}
	return Envelope{
		TraceId:        traceId,
		UserId:         userId,
		ConversationId: conversationId,
		SessionId:      sessionId,
		Args:           args,
		TsUtc:          time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Validate checks required fields and the timestamp format
func (e Envelope) Validate() error {
	if err := validate.Struct(e); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
			return Validation(fmt.Sprintf("invalid envelope: missing %s", strings.Join(fields, ", ")))
		}
		return Validation("invalid envelope")
	}
	if _, err := time.Parse(time.RFC3339, e.TsUtc); err != nil {
		return Validation("invalid envelope: ts_utc must be RFC3339")
	}
	return nil
}

// String returns args[key] as a trimmed string
func (e Envelope) String(key string) string {
	if e.Args == nil {
		return ""
	}
	if v, ok := e.Args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// StringOr returns args[key] or the fallback when empty
func (e Envelope) StringOr(key, fallback string) string {
	if v := e.String(key); v != "" {
		return v
	}
	return fallback
}

// Bool returns args[key] as bool with a fallback
func (e Envelope) Bool(key string, fallback bool) bool {
	if e.Args == nil {
		return fallback
	}
	if v, ok := e.Args[key].(bool); ok {
		return v
	}
	return fallback
}

// Int returns args[key] as int. JSON numbers decode as float64.
func (e Envelope) Int(key string, fallback int) int {
	if e.Args == nil {
		return fallback
	}
	switch v := e.Args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// WholeInt returns args[key] as an int. present is false when the key is absent or
// null. A string or a number with a fractional part is a validation error.
func (e Envelope) WholeInt(key string) (n int, present bool, err error) {
	if e.Args == nil {
		return 0, false, nil
	}
	raw, ok := e.Args[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, true, Validation(fmt.Sprintf("%s must be a whole number", key))
		}
		return int(v), true, nil
	}
	return 0, true, Validation(fmt.Sprintf("%s must be a number", key))
}

// Strings returns args[key] as a string slice. A single string becomes a one-element slice.
func (e Envelope) Strings(key string) []string {
	if e.Args == nil {
		return nil
	}
	switch v := e.Args[key].(type) {
	case []string:
		return v
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// WithArgs returns a copy of the envelope carrying different args
func (e Envelope) WithArgs(args map[string]interface{}) Envelope {
	if args == nil {
		args = map[string]interface{}{}
	}
	e.Args = args
	return e
}
