//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gokatarajesh/word-duel/internal/auth/jwt"
	wsmsg "github.com/gokatarajesh/word-duel/pkg/http/ws"
)

type player struct {
	ID          uuid.UUID
	DisplayName string
	AccessToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
}

// newPlayer mints an access token with the server's JWT secret.
func newPlayer(t *testing.T, name string, guest bool) player {
	t.Helper()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		t.Skip("JWT_SECRET not set; cannot mint tokens for the running server")
	}
	tokens := jwt.NewManager(jwt.TokenConfig{
		AccessSecret: []byte(secret),
		Issuer:       envOrDefault("JWT_ISSUER", "word-duel"),
	})

	p := player{ID: uuid.New(), DisplayName: fmt.Sprintf("%s-%d", name, time.Now().UnixNano())}
	token, err := tokens.GenerateAccessToken(jwt.User{ID: p.ID, DisplayName: p.DisplayName, IsGuest: guest})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	p.AccessToken = token
	return p
}

func doRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func dialDuelWS(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/duels"))
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()

	msg, err := wsmsg.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("build %s message: %v", msgType, err)
	}
	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

func waitFor(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration, out interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read ws message while waiting for %s: %v", msgType, err)
		}
		if msg.Type == wsmsg.TypeError && msgType != wsmsg.TypeError {
			t.Fatalf("server error while waiting for %s: %s", msgType, msg.Payload)
		}
		if msg.Type != msgType {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(msg.Payload, out); err != nil {
				t.Fatalf("decode %s payload: %v", msgType, err)
			}
		}
		return
	}
	t.Fatalf("timeout waiting for %s", msgType)
}
