package turn

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"well-bot-be/pkg/card"
)

// Toolbox maps tool names to entries for direct invocation
type Toolbox map[string]Entry

// NewToolbox indexes every dispatch entry by tool name and adds tools that no intent
// reaches. Tool names must be unique.
func NewToolbox(d Dispatch, extras ...Entry) (Toolbox, error) {
	tb := make(Toolbox, len(d)+len(extras))
	add := func(e Entry) error {
		if e.Tool == "" || e.Handler == nil {
			return fmt.Errorf("toolbox: incomplete entry %q", e.Tool)
		}
		if _, dup := tb[e.Tool]; dup {
			return fmt.Errorf("toolbox: duplicate tool %q", e.Tool)
		}
		tb[e.Tool] = e
		return nil
	}
	for _, e := range d {
		if err := add(e); err != nil {
			return nil, err
		}
	}
	for _, e := range extras {
		if err := add(e); err != nil {
			return nil, err
		}
	}
	return tb, nil
}

// Names lists the tool names in order
func (tb Toolbox) Names() []string {
	names := make([]string, 0, len(tb))
	for name := range tb {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunTool invokes a tool outside of intent resolution. The envelope must already be
// valid. When it names a session the call is serialized with that session's turns and
// the entry's session effect applies.
func (o *Orchestrator) RunTool(ctx context.Context, env card.Envelope, entry Entry) (out card.Card) {
	start := o.now()
	ctx, span := o.tracer.Start(ctx, "tool.run", trace.WithAttributes(attribute.String("tool", entry.Tool)))
	defer func() {
		out = out.Stamp(entry.Tool, start)
		span.SetAttributes(attribute.String("card.status", string(out.Status)))
		span.End()
	}()

	id := env.SessionId
	if id == "" {
		id = env.ConversationId
	}
	if id == "" {
		c, _ := o.call(ctx, entry, env)
		return c
	}

	rec := o.registry.Acquire(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	c, ok := o.call(ctx, entry, env)
	if ok {
		o.applyEffect(rec, entry.Effect)
	}
	return c
}
