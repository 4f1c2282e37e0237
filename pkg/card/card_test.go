package card

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailInvariant(t *testing.T) {
	c := Fail("todo.add", "Validation Error", "Title is required", "")

	assert.Equal(t, StatusError, c.Status)
	assert.Equal(t, TypeErrorCard, c.Type)
	require.NotNil(t, c.ErrorCode)
	assert.Equal(t, CodeUnexpected, *c.ErrorCode)
	assert.Equal(t, KindError, c.Kind())
	assert.Equal(t, "todo.add", c.Meta["tool"])
	assert.True(t, c.IsError())
}

func TestOKDefaultsKind(t *testing.T) {
	assert.Equal(t, KindInfo, OK("quote.get", "t", "b", nil).Kind())
	assert.Equal(t, KindQuote, OK("quote.get", "t", "b", map[string]interface{}{"kind": KindQuote}).Kind())
	assert.Equal(t, TypeOverlayControl, Overlay("journal.start", "t", "b", nil).Type)
}

func TestWithMetaCopies(t *testing.T) {
	meta := map[string]interface{}{"kind": KindTodo}
	c := OK("todo.list", "t", "b", meta)
	d := c.WithMeta("armed", true)

	assert.Nil(t, c.Meta["armed"])
	assert.Equal(t, true, d.Meta["armed"])
	assert.Nil(t, meta["armed"])
}

func TestStamp(t *testing.T) {
	c := OK("", "t", "b", nil).Stamp("turn", time.Now().Add(-20*time.Millisecond))
	assert.Equal(t, "turn", c.Diagnostics.Tool)
	assert.GreaterOrEqual(t, c.Diagnostics.DurationMs, int64(20))
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus Status
		wantCode   string
		wantTitle  string
	}{
		{name: "validation", err: Validation("content is required"), wantStatus: StatusError, wantCode: CodeValidation, wantTitle: "Validation Error"},
		{name: "wrapped validation", err: fmt.Errorf("add: %w", Validation("bad")), wantStatus: StatusError, wantCode: CodeValidation, wantTitle: "Validation Error"},
		{name: "conflict is informational", err: Conflict("show the list first"), wantStatus: StatusOK, wantTitle: "One More Step"},
		{name: "unhandled", err: Unhandled("panic", nil), wantStatus: StatusError, wantCode: CodeUnhandled, wantTitle: "Action Failed"},
		{name: "plain error", err: errors.New("db down"), wantStatus: StatusError, wantCode: CodeUnexpected, wantTitle: "Action Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromError("todo.add", tt.err)
			assert.Equal(t, tt.wantStatus, c.Status)
			assert.Equal(t, tt.wantTitle, c.Title)
			if tt.wantCode == "" {
				assert.Nil(t, c.ErrorCode)
				return
			}
			require.NotNil(t, c.ErrorCode)
			assert.Equal(t, tt.wantCode, *c.ErrorCode)
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("x")))
	assert.Equal(t, KindUnhandled, KindOf(errors.New("x")))
}

func TestEnvelopeValidate(t *testing.T) {
	ok := NewEnvelope("t1", "u1", "c1", "s1", nil)
	assert.NoError(t, ok.Validate())

	missing := Envelope{TsUtc: ok.TsUtc}
	err := missing.Validate()
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "traceid")

	badTime := NewEnvelope("t1", "u1", "", "", nil)
	badTime.TsUtc = "yesterday"
	assert.Error(t, badTime.Validate())
}

func TestEnvelopeArgs(t *testing.T) {
	env := NewEnvelope("t", "u", "c", "s", map[string]interface{}{
		"content": "  buy milk ",
		"count":   float64(3),
		"armed":   true,
		"items":   []interface{}{"a", "", "b"},
	})

	assert.Equal(t, "buy milk", env.String("content"))
	assert.Equal(t, "fallback", env.StringOr("missing", "fallback"))
	assert.Equal(t, 3, env.Int("count", 0))
	assert.True(t, env.Bool("armed", false))
	assert.Equal(t, []string{"a", "b"}, env.Strings("items"))
	assert.Equal(t, []string{"x"}, env.WithArgs(map[string]interface{}{"items": "x"}).Strings("items"))
}

func TestNormalize(t *testing.T) {
	code := CodeValidation
	tests := []struct {
		name     string
		in       Card
		wantOK   bool
		wantType Type
		wantKind string
		wantCode string
	}{
		{name: "well formed", in: OK("todo.list", "t", "b", map[string]interface{}{"kind": KindTodo}), wantOK: true, wantType: TypeCard, wantKind: KindTodo},
		{name: "ok without kind or type", in: Card{Status: StatusOK, Title: "t"}, wantOK: true, wantType: TypeCard, wantKind: KindInfo},
		{name: "ok with error type", in: Card{Status: StatusOK, Type: TypeErrorCard}, wantOK: true, wantType: TypeCard, wantKind: KindInfo},
		{name: "error without type or code", in: Card{Status: StatusError}, wantType: TypeErrorCard, wantKind: KindError, wantCode: CodeToolFailed},
		{name: "error without kind", in: Card{Status: StatusError, Type: TypeErrorCard, ErrorCode: &code}, wantType: TypeErrorCard, wantKind: KindError, wantCode: CodeValidation},
		{name: "zero card", in: Card{}, wantType: TypeErrorCard, wantKind: KindError, wantCode: CodeToolFailed},
		{name: "unknown status", in: Card{Status: "maybe", Type: TypeCard}, wantType: TypeErrorCard, wantKind: KindError, wantCode: CodeToolFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Normalize("todo.list", tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantType, c.Type)
			assert.Equal(t, tt.wantKind, c.Kind())
			assert.Equal(t, "todo.list", c.Diagnostics.Tool)
			assert.NotNil(t, c.PersistedIds.Extra)
			if tt.wantCode == "" {
				assert.Nil(t, c.ErrorCode)
				return
			}
			require.NotNil(t, c.ErrorCode)
			assert.Equal(t, tt.wantCode, *c.ErrorCode)
		})
	}
}

func TestEnvelopeWholeInt(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]interface{}
		want        int
		wantPresent bool
		wantErr     bool
	}{
		{name: "absent", args: nil},
		{name: "null", args: map[string]interface{}{"mood": nil}},
		{name: "json number", args: map[string]interface{}{"mood": float64(4)}, want: 4, wantPresent: true},
		{name: "int", args: map[string]interface{}{"mood": 2}, want: 2, wantPresent: true},
		{name: "fraction", args: map[string]interface{}{"mood": 3.7}, wantPresent: true, wantErr: true},
		{name: "string", args: map[string]interface{}{"mood": "4"}, wantPresent: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, present, err := NewEnvelope("t1", "u1", "", "", tt.args).WholeInt("mood")
			assert.Equal(t, tt.wantPresent, present)
			if tt.wantErr {
				assert.Equal(t, KindValidation, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}
