package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, httpURL, arenaName string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(httpURL, "http") + "/?arena=" + arenaName
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) wsEnvelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(waitFor)))
	var env wsEnvelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

func TestWSGatewayPlayThrough(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(HandleWS))
	t.Cleanup(hs.Close)
	t.Cleanup(GetArenaManager().Stop)

	ws := dialWS(t, hs.URL, "ws-gw")

	env := readEnvelope(t, ws)
	assert.Equal(t, "notice", env.Type)
	assert.Equal(t, "READY", env.Text)

	env = readEnvelope(t, ws)
	require.Equal(t, "state", env.Type)
	require.Len(t, env.Rows, 5)
	require.Len(t, env.Players, 1)
	assert.Equal(t, "A", env.Players[0].ID)
	assert.Equal(t, "A...+", env.Rows[0])

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("MOVE DOWN")))
	env = readEnvelope(t, ws)
	require.Equal(t, "state", env.Type)
	require.Len(t, env.Players, 1)
	assert.Equal(t, 1, env.Players[0].Row)
	assert.Equal(t, 0, env.Players[0].Col)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("BOGUS")))
	env = readEnvelope(t, ws)
	assert.Equal(t, "error", env.Type)
	assert.Equal(t, "bad command", env.Reason)
}

func TestWSGatewayChatEnvelope(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(HandleWS))
	t.Cleanup(hs.Close)
	t.Cleanup(GetArenaManager().Stop)

	ws1 := dialWS(t, hs.URL, "ws-gw-chat")
	readEnvelope(t, ws1) // READY
	readEnvelope(t, ws1) // 首次广播

	ws2 := dialWS(t, hs.URL, "ws-gw-chat")
	readEnvelope(t, ws2) // READY
	env := readEnvelope(t, ws2)
	require.Equal(t, "state", env.Type)
	require.Len(t, env.Players, 2)

	require.NoError(t, ws2.WriteMessage(websocket.TextMessage, []byte("SAY gg")))

	// ws1 先收到 B 的入场通知与广播，再收到聊天信封
	env = readEnvelope(t, ws1)
	assert.Equal(t, "notice", env.Type)
	assert.Equal(t, "Player B has entered the game.", env.Text)
	env = readEnvelope(t, ws1)
	require.Equal(t, "state", env.Type)
	env = readEnvelope(t, ws1)
	assert.Equal(t, "chat", env.Type)
	assert.Equal(t, "B", env.From)
	assert.Equal(t, "gg", env.Text)
}
