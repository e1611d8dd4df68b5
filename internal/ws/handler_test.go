package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/scene-quest/internal/engine"
	"github.com/DoyleJ11/scene-quest/internal/hub"
	"github.com/DoyleJ11/scene-quest/internal/session"
	"github.com/DoyleJ11/scene-quest/internal/types"
)

func startServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, session.Options{Seed: 1})
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.CreateSession{Code: "WS1", Reply: reply}
	require.NotNil(t, <-reply)

	srv := httptest.NewServer(Handler(h, Options{}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
}

func TestHandler_RoundTrip(t *testing.T) {
	_, base := startServer(t)
	conn := dial(t, base+"/?code=WS1")

	first := readMsg(t, conn)
	assert.Equal(t, "StateSnapshot", first.Type)
	require.NotNil(t, first.View)
	assert.Equal(t, engine.SceneGate, first.View.Scene)

	send(t, conn, types.ClientMessage{Type: "SubmitPassword", Input: "wrong"})
	rejected := readMsg(t, conn)
	assert.Equal(t, "Try again, love.", rejected.Error)

	send(t, conn, map[string]string{"type": "Dance"})
	unknown := readMsg(t, conn)
	assert.Equal(t, "Error", unknown.Type)
	assert.Equal(t, "unknown type", unknown.Error)

	send(t, conn, types.ClientMessage{Type: "ToggleMusic"})
	music := readMsg(t, conn)
	require.NotNil(t, music.View)
	assert.True(t, music.View.Music.Playing)
}

func TestHandler_UnknownSession(t *testing.T) {
	srv, _ := startServer(t)
	resp, err := srv.Client().Get(srv.URL + "/?code=NOPE")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
}

func TestToSessionMsg(t *testing.T) {
	tests := []struct {
		name string
		in   types.ClientMessage
		want session.Msg
	}{
		{"password", types.ClientMessage{Type: "SubmitPassword", Input: "x"},
			session.FromClient{ClientID: "c", Cmd: engine.Command{Type: engine.CmdSubmitPassword, Input: "x"}}},
		{"next", types.ClientMessage{Type: "NextQuestion"},
			session.FromClient{ClientID: "c", Cmd: engine.Command{Type: engine.CmdAdvanceQuestion}}},
		{"replay", types.ClientMessage{Type: "OpenReplay", ReplayKind: "question", QuestionID: 4},
			session.FromClient{ClientID: "c", Cmd: engine.Command{
				Type: engine.CmdOpenReplay,
				Item: engine.ReplayItem{Kind: engine.ReplayQuestion, QuestionID: 4},
			}}},
		{"autoplay", types.ClientMessage{Type: "AutoplayBlocked"}, session.Music{Action: session.MusicBlocked}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toSessionMsg("c", tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	_, ok := toSessionMsg("c", types.ClientMessage{Type: "LockPick"})
	assert.False(t, ok)
}
