package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/pkg/serverutils"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/turn"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTurns struct {
	got turn.Request
}

func (f *fakeTurns) Handle(ctx context.Context, req turn.Request) card.Card {
	f.got = req
	return card.OK(turn.ToolChat, "Chat", "hi there", map[string]interface{}{"kind": card.KindChat})
}

// directRunner calls the handler without a session pipeline
type directRunner struct{}

func (directRunner) RunTool(ctx context.Context, env card.Envelope, entry turn.Entry) card.Card {
	c, err := entry.Handler(ctx, env)
	if err != nil {
		return card.FromError(entry.Tool, err)
	}
	return c
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeCard(t *testing.T, data []byte) card.Card {
	t.Helper()
	var c card.Card
	require.NoError(t, json.Unmarshal(data, &c))
	return c
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestChatTurn(t *testing.T) {
	turns := &fakeTurns{}
	app := newApp()
	NewTurnController(turns).RegisterRoutes(app.Group("/api"), serverutils.CardAuthMiddleware(serverutils.AuthModeStatic, "dev-secret", ""))

	tests := []struct {
		name    string
		body    string
		headers map[string]string
		status  int
		code    string
	}{
		{name: "ok", body: `{"text":"hello","user_id":"u1","session_id":"s1"}`, headers: bearer("dev-secret"), status: 200},
		{name: "no token", body: `{"text":"hello","user_id":"u1"}`, status: 401, code: card.CodeUnauthorized},
		{name: "wrong token", body: `{"text":"hello","user_id":"u1"}`, headers: bearer("nope"), status: 401, code: card.CodeUnauthorized},
		{name: "missing text", body: `{"user_id":"u1"}`, headers: bearer("dev-secret"), status: 400, code: card.CodeValidation},
		{name: "bad json", body: `{`, headers: bearer("dev-secret"), status: 400, code: card.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doJSON(t, app, http.MethodPost, "/api/llm/chat/turn", tt.body, tt.headers)
			assert.Equal(t, tt.status, resp.StatusCode)
			c := decodeCard(t, data)
			if tt.code == "" {
				assert.Equal(t, card.StatusOK, c.Status)
				return
			}
			assert.Equal(t, card.StatusError, c.Status)
			require.NotNil(t, c.ErrorCode)
			assert.Equal(t, tt.code, *c.ErrorCode)
		})
	}
}

func TestChatTurnPassesTraceAndArgs(t *testing.T) {
	turns := &fakeTurns{}
	app := newApp()
	NewTurnController(turns).RegisterRoutes(app.Group("/api"), serverutils.CardAuthMiddleware(serverutils.AuthModeNone, "", ""))

	headers := map[string]string{"X-Trace-Id": "trace-42"}
	resp, _ := doJSON(t, app, http.MethodPost, "/api/llm/chat/turn",
		`{"text":"add milk","user_id":"u1","conversation_id":"c1","lang":"en","args":{"x":1}}`, headers)
	require.Equal(t, 200, resp.StatusCode)

	assert.Equal(t, "trace-42", turns.got.Envelope.TraceId)
	assert.Equal(t, "c1", turns.got.SessionID())
	assert.Equal(t, "add milk", turns.got.Text)
	assert.Equal(t, float64(1), turns.got.Envelope.Args["x"])
}

func TestChatTurnJwtUserMismatch(t *testing.T) {
	app := newApp()
	NewTurnController(&fakeTurns{}).RegisterRoutes(app.Group("/api"), serverutils.CardAuthMiddleware(serverutils.AuthModeJwt, "", "secret"))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/llm/chat/turn", `{"text":"hi","user_id":"u2"}`, bearer(token))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/llm/chat/turn", `{"text":"hi","user_id":"u1"}`, bearer(token))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func newToolApp(t *testing.T) *fiber.App {
	t.Helper()
	hello := func(ctx context.Context, env card.Envelope) (card.Card, error) {
		return card.OK("test.hello", "Hello", "Hello, "+env.StringOr("name", "friend")+"!", nil), nil
	}
	failing := func(ctx context.Context, env card.Envelope) (card.Card, error) {
		return card.Card{}, errors.New("db down")
	}
	tb := turn.Toolbox{
		"test.hello": {Tool: "test.hello", Handler: hello},
		"test.fail":  {Tool: "test.fail", Handler: failing},
	}
	app := newApp()
	NewToolController(directRunner{}, tb, logger.NewNopLogger()).RegisterRoutes(app.Group("/api"),
		serverutils.CardAuthMiddleware(serverutils.AuthModeStatic, "dev-secret", ""))
	return app
}

func envelopeBody(args string) string {
	return `{"trace_id":"t1","user_id":"u1","ts_utc":"` + time.Now().UTC().Format(time.RFC3339) + `","args":` + args + `}`
}

func TestToolInvoke(t *testing.T) {
	app := newToolApp(t)

	resp, data := doJSON(t, app, http.MethodPost, "/api/tools/test.hello", envelopeBody(`{"name":"Ana"}`), bearer("dev-secret"))
	require.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Response-Time"))
	c := decodeCard(t, data)
	assert.Equal(t, "Hello, Ana!", c.Body)

	resp, data = doJSON(t, app, http.MethodPost, "/api/tools/test.fail", envelopeBody(`{}`), bearer("dev-secret"))
	require.Equal(t, 200, resp.StatusCode)
	c = decodeCard(t, data)
	assert.Equal(t, card.StatusError, c.Status)
	assert.Equal(t, "Action Failed", c.Title)
}

func TestToolInvokeRejections(t *testing.T) {
	app := newToolApp(t)

	tests := []struct {
		name    string
		path    string
		body    string
		headers map[string]string
		status  int
		code    string
	}{
		{name: "unauthorized", path: "/api/tools/test.hello", body: envelopeBody(`{}`), status: 401, code: card.CodeUnauthorized},
		{name: "unknown tool", path: "/api/tools/nope", body: envelopeBody(`{}`), headers: bearer("dev-secret"), status: 404, code: card.CodeUnknownTool},
		{name: "missing user", path: "/api/tools/test.hello", body: `{"trace_id":"t1","ts_utc":"2025-01-01T00:00:00Z"}`, headers: bearer("dev-secret"), status: 400, code: card.CodeValidation},
		{name: "bad timestamp", path: "/api/tools/test.hello", body: `{"trace_id":"t1","user_id":"u1","ts_utc":"yesterday"}`, headers: bearer("dev-secret"), status: 400, code: card.CodeValidation},
		{name: "bad json", path: "/api/tools/test.hello", body: `{`, headers: bearer("dev-secret"), status: 400, code: card.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doJSON(t, app, http.MethodPost, tt.path, tt.body, tt.headers)
			assert.Equal(t, tt.status, resp.StatusCode)
			c := decodeCard(t, data)
			require.NotNil(t, c.ErrorCode)
			assert.Equal(t, tt.code, *c.ErrorCode)
		})
	}
}

func TestToolList(t *testing.T) {
	app := newToolApp(t)

	resp, data := doJSON(t, app, http.MethodGet, "/api/tools", "", nil)
	require.Equal(t, 200, resp.StatusCode)

	var body serverutils.Response[[]string]
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, []string{"test.fail", "test.hello"}, body.Data)
}

func TestHealth(t *testing.T) {
	app := newApp()
	NewHealthController(map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"nats":     nil,
	}).RegisterRoutes(app)

	resp, data := doJSON(t, app, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	var live dto.HealthResponse
	require.NoError(t, json.Unmarshal(data, &live))
	assert.Equal(t, "well-bot-backend", live.Service)

	resp, data = doJSON(t, app, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	var ready dto.ReadinessResponse
	require.NoError(t, json.Unmarshal(data, &ready))
	assert.Equal(t, "disabled", ready.Checks["nats"].Status)
	assert.Equal(t, "healthy", ready.Checks["database"].Status)
}

func TestReadinessFailure(t *testing.T) {
	app := newApp()
	NewHealthController(map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}).RegisterRoutes(app)

	resp, data := doJSON(t, app, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	var ready dto.ReadinessResponse
	require.NoError(t, json.Unmarshal(data, &ready))
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "connection refused", ready.Checks["redis"].Message)
}
