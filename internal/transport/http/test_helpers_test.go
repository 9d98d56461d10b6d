package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-router/internal/auth"
	"github.com/vovakirdan/wirechat-router/internal/config"
	"github.com/vovakirdan/wirechat-router/internal/core"
	"github.com/vovakirdan/wirechat-router/internal/log"
	"github.com/vovakirdan/wirechat-router/internal/proto"
	"github.com/vovakirdan/wirechat-router/internal/service/chat"
	"github.com/vovakirdan/wirechat-router/internal/store/sqlite"
)

type testEnv struct {
	server *httptest.Server
	auth   *auth.Service
	router *core.Router
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"
	cfg.ReadHeaderTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	logger := log.Nop()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	})
	chats := chat.New(st, logger)

	registry := core.NewRegistry(logger)
	dispatcher := core.NewDispatcher(registry, core.ChatHandlers(chats), logger)
	router := core.NewRouter(authService, registry, dispatcher, logger, cfg.SessionBuffer)

	server := NewServer(router, authService, chats, &cfg, logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, auth: authService, router: router}
}

// register creates an identity and returns its id and session token.
func (e *testEnv) register(t *testing.T, login string) (string, string) {
	t.Helper()

	token, identity, err := e.auth.Register(context.Background(), login, "", "password123")
	if err != nil {
		t.Fatalf("register %s: %v", login, err)
	}
	return identity.ID, token
}

func (e *testEnv) wsURL() string {
	return strings.Replace(e.server.URL, "http", "ws", 1) + "/ws"
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, e.wsURL()+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// readFrame is an outbound frame with the payload left raw.
type readFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// readUntil reads frames until one matches event, skipping the rest.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) readFrame {
	t.Helper()

	for {
		var frame readFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if frame.Event == event {
			return frame
		}
	}
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, command string, data any) {
	t.Helper()

	inbound := proto.Inbound{Type: command}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s: %v", command, err)
		}
		inbound.Data = raw
	}
	if err := wsjson.Write(ctx, conn, inbound); err != nil {
		t.Fatalf("write %s: %v", command, err)
	}
}

// envelopeOf decodes a result frame's envelope with its value into v.
func envelopeOf(t *testing.T, frame readFrame, v any) core.Envelope {
	t.Helper()

	var env struct {
		core.Envelope
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(frame.Data, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if v != nil && len(env.Value) > 0 {
		if err := json.Unmarshal(env.Value, v); err != nil {
			t.Fatalf("decode value: %v", err)
		}
	}
	return env.Envelope
}
