package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillduels/backend/internal/domain"
	"github.com/skillduels/backend/internal/service/duel"
	"github.com/skillduels/backend/internal/service/matchmaking"
)

type stubStore struct{}

func (stubStore) SampleQuestions(_ context.Context, category string, n int) ([]domain.Question, error) {
	return []domain.Question{{ID: 1, Title: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a", Category: category}}, nil
}

func (stubStore) CreateDuel(context.Context, *domain.DuelRecord) (int64, error) { return 1, nil }

func (stubStore) UpdateDuelResult(context.Context, int64, *domain.DuelRecord) error { return nil }

func (stubStore) FindLatestCompleted(context.Context) (*domain.DuelRecord, error) { return nil, nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cm := NewConnectionManager()
	orch := duel.NewOrchestrator(
		matchmaking.NewQueue(),
		matchmaking.NewFallbackScheduler(),
		duel.NewRegistry(),
		stubStore{},
		cm,
		duel.Options{FallbackDelay: time.Minute},
	)

	router := gin.New()
	router.GET("/ws", NewHandler(cm, orch).HandleWebSocket)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) domain.ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg domain.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestFindDuelMatchesTwoClients(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	bob := dial(t, srv)

	require.NoError(t, alice.WriteJSON(domain.ClientMessage{
		Type: domain.MsgFindDuel, UserID: 1, DisplayName: "Alice", Category: "Technical",
	}))
	waiting := readMessage(t, alice)
	assert.Equal(t, domain.MsgWaiting, waiting.Type)

	require.NoError(t, bob.WriteJSON(domain.ClientMessage{
		Type: domain.MsgFindDuel, UserID: 2, DisplayName: "Bob", Category: "Technical",
	}))

	matchedAlice := readMessage(t, alice)
	matchedBob := readMessage(t, bob)

	require.Equal(t, domain.MsgMatched, matchedAlice.Type)
	require.Equal(t, domain.MsgMatched, matchedBob.Type)
	assert.Equal(t, matchedAlice.RoomID, matchedBob.RoomID)
	assert.NotEqual(t, matchedAlice.SelfID, matchedBob.SelfID)
	assert.Equal(t, "Bob", matchedAlice.OpponentName)
	assert.Equal(t, "Alice", matchedBob.OpponentName)
	assert.Len(t, matchedAlice.Questions, 1)
}

func TestSubmitScoreRelaysToOpponentOnly(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	bob := dial(t, srv)

	require.NoError(t, alice.WriteJSON(domain.ClientMessage{
		Type: domain.MsgFindDuel, UserID: 1, DisplayName: "Alice", Category: "Aptitude",
	}))
	readMessage(t, alice) // waiting
	require.NoError(t, bob.WriteJSON(domain.ClientMessage{
		Type: domain.MsgFindDuel, UserID: 2, DisplayName: "Bob", Category: "Aptitude",
	}))
	matched := readMessage(t, alice)
	readMessage(t, bob)

	require.NoError(t, alice.WriteJSON(domain.ClientMessage{
		Type: domain.MsgSubmitScore, RoomID: matched.RoomID, Score: 30,
	}))

	relay := readMessage(t, bob)
	assert.Equal(t, domain.MsgOpponentScore, relay.Type)
	require.NotNil(t, relay.Score)
	assert.Equal(t, 30, *relay.Score)
}

func TestInvalidCategoryReturnsErrorEvent(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(domain.ClientMessage{
		Type: domain.MsgFindDuel, UserID: 1, DisplayName: "Alice", Category: "Juggling",
	}))

	msg := readMessage(t, conn)
	assert.Equal(t, domain.MsgError, msg.Type)
	assert.Equal(t, string(domain.ErrInvalidCategory), msg.Message)
}
