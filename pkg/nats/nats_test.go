package nats

import (
	"testing"
	"time"

	"well-bot-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	at := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	header := nats.Header{}
	header.Set(headerType, events.TypeSessionEnded)
	header.Set(headerTime, at.Format(time.RFC3339Nano))

	e, err := Decode(Subject(events.TypeSessionEnded), header, []byte(`{"session_id":"s1","reason":"manual"}`))
	require.NoError(t, err)
	assert.Equal(t, events.TypeSessionEnded, e.EventType())
	assert.Equal(t, at, e.Timestamp())
	assert.Equal(t, "manual", e.Payload()["reason"])
}

func TestDecodeFallsBackToSubject(t *testing.T) {
	e, err := Decode("events.turn.completed", nats.Header{}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, events.TypeTurnCompleted, e.EventType())
	assert.False(t, e.Timestamp().IsZero())

	_, err = Decode("events.turn.completed", nats.Header{}, []byte(`not json`))
	assert.Error(t, err)
}

func TestNilPublisherIsDisconnected(t *testing.T) {
	var p *Publisher
	assert.False(t, p.Connected())
	p.Close()
}
