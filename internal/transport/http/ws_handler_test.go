package http

import (
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trivia-builder-service/internal/app"
	"trivia-builder-service/internal/auth"
	"trivia-builder-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketBuilderFlow(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(), NewAuthenticator(nil)))
	defer server.Close()

	conn := dial(t, server, "/ws/builder?userId=u1")
	defer conn.Close()

	_, joined := readNext(conn, t, "joined")
	sessionID, _ := joined["sessionId"].(string)
	if sessionID == "" {
		t.Fatalf("expected session id in joined payload, got %v", joined)
	}

	send(t, conn, map[string]any{
		"type":    "intent",
		"payload": map[string]any{"kind": "setTitle", "title": "  Space  "},
	})
	_, state := readNext(conn, t, "state")
	set, _ := state["set"].(map[string]any)
	if set["title"] != "Space" {
		t.Fatalf("expected trimmed title, got %v", set["title"])
	}

	send(t, conn, map[string]any{"type": "save"})
	var saved map[string]any
	for i := 0; i < 3 && saved == nil; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == "saved" {
			saved = payload
		}
	}
	if saved == nil {
		t.Fatalf("expected saved message")
	}
	if saved["status"] != "ok" || saved["isDraft"] != true || saved["setId"] != sessionID {
		t.Fatalf("unexpected save result %v", saved)
	}
}

func TestWebSocketSharedSession(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(), NewAuthenticator(nil)))
	defer server.Close()

	phone := dial(t, server, "/ws/builder?userId=u1")
	defer phone.Close()
	_, joined := readNext(phone, t, "joined")
	sessionID := joined["sessionId"].(string)

	tablet := dial(t, server, "/ws/builder?userId=u1&sessionId="+sessionID)
	defer tablet.Close()
	readNext(tablet, t, "joined")

	send(t, phone, map[string]any{
		"type":    "intent",
		"payload": map[string]any{"kind": "addTag", "tag": "space"},
	})
	_, state := readNext(tablet, t, "state")
	set := state["set"].(map[string]any)
	tags, _ := set["tags"].([]any)
	if len(tags) != 1 || tags[0] != "SPACE" {
		t.Fatalf("expected tag broadcast to second device, got %v", set["tags"])
	}
}

func TestWebSocketRejectsBadInput(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(), NewAuthenticator(nil)))
	defer server.Close()

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/builder"), nil); err == nil {
		t.Fatalf("expected unauthenticated dial to fail")
	} else if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %v", resp)
	}

	conn := dial(t, server, "/ws/builder?userId=u1")
	defer conn.Close()
	readNext(conn, t, "joined")

	send(t, conn, map[string]any{"type": "intent", "payload": map[string]any{"kind": "teleport"}})
	_, payload := readNext(conn, t, "error")
	if msg, _ := payload["message"].(string); !strings.Contains(msg, "teleport") {
		t.Fatalf("expected unknown intent error, got %v", payload)
	}
}

func TestWebSocketBearerToken(t *testing.T) {
	verifier := auth.NewTokenVerifier("secret")
	server := httptest.NewServer(NewRouter(newTestService(), NewAuthenticator(verifier)))
	defer server.Close()

	token, err := verifier.Issue("u1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/builder"), map[string][]string{
		"Authorization": {"Bearer " + token},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_, joined := readNext(conn, t, "joined")
	state := joined["state"].(map[string]any)
	set := state["set"].(map[string]any)
	if set["ownerId"] != "u1" {
		t.Fatalf("expected owner from token subject, got %v", set["ownerId"])
	}
}

func newTestService() *app.BuilderService {
	return app.NewBuilderService(
		memory.NewSetStore(),
		memory.NewSessionStore(),
		auth.ContextIdentity{},
		app.WithRandSource(func() rand.Source { return rand.NewSource(1) }),
	)
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + server.URL[len("http"):] + path
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, path), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
