package events

import "time"

const (
	TypeTurnCompleted   = "turn.completed"
	TypeSafetyTriggered = "safety.triggered"
	TypeSessionEnded    = "session.ended"
	TypeActivityLogged  = "activity.logged"
)

func newEvent(t string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: t, Data: data, OccurredAt: time.Now().UTC()}
}

// TurnCompleted carries the outcome of one turn. Text is never included.
func TurnCompleted(traceID, userID, sessionID, intent, cardKind string, isError bool, durationMs int64) BaseEvent {
	return newEvent(TypeTurnCompleted, map[string]interface{}{
		"trace_id":    traceID,
		"user_id":     userID,
		"session_id":  sessionID,
		"intent":      intent,
		"card_kind":   cardKind,
		"is_error":    isError,
		"duration_ms": durationMs,
	})
}

func SafetyTriggered(traceID, userID, sessionID, severity string, phrases []string) BaseEvent {
	return newEvent(TypeSafetyTriggered, map[string]interface{}{
		"trace_id":   traceID,
		"user_id":    userID,
		"session_id": sessionID,
		"severity":   severity,
		"phrases":    phrases,
	})
}

func SessionEnded(userID, sessionID, reason string) BaseEvent {
	return newEvent(TypeSessionEnded, map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
		"reason":     reason,
	})
}

// ActivityLogged is persisted to the activity event table by the activity consumer
func ActivityLogged(userID, activityType, refID, action string, meta map[string]interface{}) BaseEvent {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return newEvent(TypeActivityLogged, map[string]interface{}{
		"user_id": userID,
		"type":    activityType,
		"ref_id":  refID,
		"action":  action,
		"meta":    meta,
	})
}
