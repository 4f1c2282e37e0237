// FILE: pkg/card/card.go
// PURPOSE: Uniform request envelope and response Card shared by every tool and the turn pipeline

package card

import (
	"time"
)

// Status of a Card
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Type of a Card
type Type string

const (
	TypeCard           Type = "card"
	TypeOverlayControl Type = "overlay_control"
	TypeErrorCard      Type = "error_card"
)

// Kind discriminators carried in Card.Meta["kind"]
const (
	KindInfo       = "info"
	KindSupport    = "support"
	KindSession    = "session"
	KindJournal    = "journal"
	KindGratitude  = "gratitude"
	KindTodo       = "todo"
	KindQuote      = "quote"
	KindMeditation = "meditation"
	KindMemory     = "memory"
	KindChat       = "chat"
	KindError      = "error"
)

// Diagnostics is stamped on every Card before emission
type Diagnostics struct {
	Tool            string `json:"tool"`
	DurationMs      int64  `json:"duration_ms"`
	MemoryUsed      *bool  `json:"memory_used,omitempty"`
	MemoryLatencyMs *int64 `json:"memory_latency_ms,omitempty"`
}

// PersistedIds references rows written by a tool. Opaque to the pipeline.
type PersistedIds struct {
	PrimaryId string   `json:"primary_id,omitempty"`
	Extra     []string `json:"extra"`
}

// Card is the response envelope returned by every tool and by the orchestrator.
type Card struct {
	Status       Status                 `json:"status"`
	Type         Type                   `json:"type"`
	Title        string                 `json:"title"`
	Body         string                 `json:"body"`
	Meta         map[string]interface{} `json:"meta"`
	PersistedIds PersistedIds           `json:"persisted_ids"`
	Diagnostics  Diagnostics            `json:"diagnostics"`
	ErrorCode    *string                `json:"error_code"`
}

// Kind returns the meta discriminator, or "" when missing
func (c Card) Kind() string {
	if c.Meta == nil {
		return ""
	}
	kind, _ := c.Meta["kind"].(string)
	return kind
}

// IsError reports whether the card is an error card
func (c Card) IsError() bool {
	return c.Status == StatusError
}

// Stamp records the producing tool and elapsed time since start
func (c Card) Stamp(tool string, start time.Time) Card {
	if tool != "" {
		c.Diagnostics.Tool = tool
	}
	c.Diagnostics.DurationMs = time.Since(start).Milliseconds()
	return c
}

// WithMeta returns a copy of the card with an additional meta entry
func (c Card) WithMeta(key string, value interface{}) Card {
	meta := make(map[string]interface{}, len(c.Meta)+1)
	for k, v := range c.Meta {
		meta[k] = v
	}
	meta[key] = value
	c.Meta = meta
	return c
}

func withKind(meta map[string]interface{}, fallback string) map[string]interface{} {
	out := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	if kind, ok := out["kind"].(string); !ok || kind == "" {
		out["kind"] = fallback
	}
	return out
}

// OK creates a successful card. A missing meta kind defaults to "info".
func OK(tool, title, body string, meta map[string]interface{}) Card {
	return Card{
		Status:       StatusOK,
		Type:         TypeCard,
		Title:        title,
		Body:         body,
		Meta:         withKind(meta, KindInfo),
		PersistedIds: PersistedIds{Extra: []string{}},
		Diagnostics:  Diagnostics{Tool: tool},
	}
}

// Overlay creates an overlay control card (e.g. journal overlay)
func Overlay(tool, title, body string, meta map[string]interface{}) Card {
	c := OK(tool, title, body, meta)
	c.Type = TypeOverlayControl
	return c
}

// Fail creates an error card. Status error always implies type error_card and a non-nil code.
func Fail(tool, title, body, code string) Card {
	if code == "" {
		code = CodeUnexpected
	}
	errorCode := code
	return Card{
		Status:       StatusError,
		Type:         TypeErrorCard,
		Title:        title,
		Body:         body,
		Meta:         map[string]interface{}{"kind": KindError, "tool": tool, "error_code": code},
		PersistedIds: PersistedIds{Extra: []string{}},
		Diagnostics:  Diagnostics{Tool: tool},
		ErrorCode:    &errorCode,
	}
}

// WithPersisted attaches persisted row ids
func (c Card) WithPersisted(primary string, extra ...string) Card {
	c.PersistedIds = PersistedIds{PrimaryId: primary, Extra: append([]string{}, extra...)}
	return c
}

// Normalize repairs a card returned by a tool so it satisfies the card contract.
// An error card missing its type or code becomes a TOOL_FAILED card, and a card
// with no recognised status is treated as a failure. ok is false for error cards.
func Normalize(tool string, c Card) (out Card, ok bool) {
	switch c.Status {
	case StatusOK:
		if c.Type != TypeCard && c.Type != TypeOverlayControl {
			c.Type = TypeCard
		}
		c.Meta = withKind(c.Meta, KindInfo)
	case StatusError:
		if c.Type != TypeErrorCard || c.ErrorCode == nil || *c.ErrorCode == "" {
			return malformed(tool, c), false
		}
		c.Meta = withKind(c.Meta, KindError)
	default:
		return malformed(tool, c), false
	}
	if c.PersistedIds.Extra == nil {
		c.PersistedIds.Extra = []string{}
	}
	if c.Diagnostics.Tool == "" {
		c.Diagnostics.Tool = tool
	}
	return c, c.Status == StatusOK
}

func malformed(tool string, c Card) Card {
	title, body := c.Title, c.Body
	if title == "" {
		title = "Action Failed"
	}
	if body == "" {
		body = "Something went wrong while handling that. Please try again."
	}
	return Fail(tool, title, body, CodeToolFailed)
}
