package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type testServer struct {
	*httptest.Server
	service *app.GameService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hub := NewHub()
	service := app.NewGameService(memory.NewSessionStore(), nil, hub)
	api := NewAPI(service, nil, nil, hub)
	server := httptest.NewServer(NewRouter(api, NewWSHandler(service, hub)))
	t.Cleanup(server.Close)
	return &testServer{Server: server, service: service}
}

func (s *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) wsMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", want)
		if msg.Type == want {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}))
}

func wsGameConfig() domain.GameConfig {
	return domain.GameConfig{
		Name:     "ws",
		Settings: domain.Settings{PointsPerCorrectAnswer: 100},
		Questions: []domain.Question{
			{
				Question:   "What is 2 + 2?",
				Answers:    []domain.Answer{{Text: "3"}, {Text: "4", Correct: true}, {Text: "5"}},
				AnswerType: domain.AnswerSingle,
				TimeLimit:  20,
				ReadTime:   60,
			},
		},
	}
}

func TestWebSocketGameFlow(t *testing.T) {
	srv := newTestServer(t)
	gameID, err := srv.service.CreateSession(context.Background(), wsGameConfig())
	require.NoError(t, err)

	host := srv.dial(t, "gameId="+gameID+"&role=host")
	readUntil(t, host, app.EventHostJoined)

	player := srv.dial(t, "gameId="+gameID)
	send(t, player, "join", map[string]any{"name": "Alice"})
	joined := readUntil(t, player, app.EventJoined)
	var joinedPayload app.JoinedPayload
	require.NoError(t, json.Unmarshal(joined.Payload, &joinedPayload))
	assert.Equal(t, "Alice", joinedPayload.Player.Name)
	assert.NotEmpty(t, joinedPayload.PlayerID)
	readUntil(t, host, app.EventPlayerAdded)

	send(t, host, "start-game", nil)
	started := readUntil(t, player, app.EventGameStarted)
	assert.NotContains(t, string(started.Payload), `"correct"`)

	send(t, host, "start-answering", nil)
	readUntil(t, player, app.EventStateUpdate)

	send(t, player, "submit-answer", map[string]any{"answerIndices": []int{1}})
	submitted := readUntil(t, player, app.EventAnswerSubmitted)
	assert.JSONEq(t, `{"answerIndices":[1]}`, string(submitted.Payload))
	answered := readUntil(t, host, app.EventPlayerAnswered)
	assert.Contains(t, string(answered.Payload), `"answeredCount":1`)

	send(t, host, "reveal-answers", nil)
	revealed := readUntil(t, player, app.EventAnswerRevealed)
	assert.JSONEq(t, `{"answers":[1]}`, string(revealed.Payload))

	send(t, host, "show-scoreboard", nil)
	board := readUntil(t, player, app.EventScoreboard)
	var scoreboard app.ScoreboardPayload
	require.NoError(t, json.Unmarshal(board.Payload, &scoreboard))
	require.Len(t, scoreboard.Leaderboard, 1)
	assert.Equal(t, 100, scoreboard.Leaderboard[0].Score)

	player.Close()
	readUntil(t, host, app.EventPlayerDisconnected)
}

func TestWebSocketHostJoinedComesFirst(t *testing.T) {
	srv := newTestServer(t)
	gameID, err := srv.service.CreateSession(context.Background(), wsGameConfig())
	require.NoError(t, err)

	first := srv.dial(t, "gameId="+gameID+"&role=host")
	readUntil(t, first, app.EventHostJoined)
	player := srv.dial(t, "gameId="+gameID)
	send(t, player, "join", map[string]any{"name": "Alice"})
	readUntil(t, player, app.EventJoined)

	send(t, first, "start-game", nil)
	second := srv.dial(t, "gameId="+gameID+"&role=host")

	_ = second.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	require.NoError(t, second.ReadJSON(&msg))
	require.Equal(t, app.EventHostJoined, msg.Type)
	var view app.StateView
	require.NoError(t, json.Unmarshal(msg.Payload, &view))
	assert.Len(t, view.Players, 1)
}

func TestWebSocketErrors(t *testing.T) {
	srv := newTestServer(t)
	gameID, err := srv.service.CreateSession(context.Background(), wsGameConfig())
	require.NoError(t, err)

	first := srv.dial(t, "gameId="+gameID)
	send(t, first, "join", map[string]any{"name": "Alice"})
	readUntil(t, first, app.EventJoined)

	second := srv.dial(t, "gameId="+gameID)
	send(t, second, "join", map[string]any{"name": "alice"})
	failed := readUntil(t, second, app.EventJoinFailed)
	assert.Contains(t, string(failed.Payload), domain.ErrNameTaken.Error())

	send(t, first, "submit-answer", map[string]any{"answerIndices": []int{1}})
	rejected := readUntil(t, first, app.EventError)
	assert.Contains(t, string(rejected.Payload), "submit answer")

	host := srv.dial(t, "gameId="+gameID+"&role=host")
	readUntil(t, host, app.EventHostJoined)
	send(t, host, "next-question", nil)
	readUntil(t, host, app.EventError)
	send(t, host, "dance", nil)
	unsupported := readUntil(t, host, app.EventError)
	assert.Contains(t, string(unsupported.Payload), "unsupported")
}

func TestWebSocketUnknownGame(t *testing.T) {
	srv := newTestServer(t)
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?gameId=NOPE"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	u = "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err = websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
