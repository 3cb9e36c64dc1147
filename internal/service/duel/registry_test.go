package duel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillduels/backend/internal/domain"
)

func slots(connA, connB string) [2]domain.PlayerSlot {
	userA, userB := int64(1), int64(2)
	return [2]domain.PlayerSlot{
		{ConnID: connA, UserID: &userA, DisplayName: "Alice"},
		{ConnID: connB, UserID: &userB, DisplayName: "Bob"},
	}
}

func TestRegistryCreateInitializesScores(t *testing.T) {
	r := NewRegistry()

	session, err := r.Create(slots("a", "b"), "Technical", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StateActive, session.State)
	assert.Equal(t, map[string]int{"a": 0, "b": 0}, session.Scores)
	assert.NotEmpty(t, session.RoomID)
}

func TestRegistryRejectsConnectionInActiveSession(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create(slots("a", "b"), "Technical", nil)
	require.NoError(t, err)

	_, err = r.Create(slots("a", "c"), "Technical", nil)
	assert.ErrorIs(t, err, domain.ErrDuelInProgress)
}

func TestRegistryApplyScoreReturnsOpponent(t *testing.T) {
	r := NewRegistry()
	session, err := r.Create(slots("a", "b"), "Technical", nil)
	require.NoError(t, err)

	opponent, ok := r.ApplyScore(session.RoomID, "a", 30)
	require.True(t, ok)
	assert.Equal(t, "b", opponent.ConnID)

	got, _ := r.Get(session.RoomID)
	assert.Equal(t, 30, got.Scores["a"])

	_, ok = r.ApplyScore("missing-room", "a", 10)
	assert.False(t, ok)
}

func TestRegistryCompletionFinalizesOnce(t *testing.T) {
	r := NewRegistry()
	session, err := r.Create(slots("a", "b"), "Technical", nil)
	require.NoError(t, err)

	_, finalized, ok := r.ApplyCompletion(session.RoomID, "a", 50)
	require.True(t, ok)
	assert.False(t, finalized)

	snapshot, finalized, ok := r.ApplyCompletion(session.RoomID, "b", 70)
	require.True(t, ok)
	assert.True(t, finalized)
	assert.Equal(t, domain.StateCompleted, snapshot.State)
	assert.Equal(t, 50, snapshot.Scores["a"])
	assert.Equal(t, 70, snapshot.Scores["b"])
	assert.Equal(t, [2]domain.Result{domain.ResultLoss, domain.ResultWin}, snapshot.Results())
	assert.False(t, snapshot.CompletedAt.IsZero())

	// Post-finalization reports never change stored scores.
	snapshot, finalized, ok = r.ApplyCompletion(session.RoomID, "a", 999)
	require.True(t, ok)
	assert.False(t, finalized)
	assert.Equal(t, 50, snapshot.Scores["a"])
}

func TestRegistryPreFinalizationReportUpdatesScore(t *testing.T) {
	r := NewRegistry()
	session, err := r.Create(slots("a", "b"), "Technical", nil)
	require.NoError(t, err)

	_, _, _ = r.ApplyCompletion(session.RoomID, "a", 50)
	snapshot, finalized, ok := r.ApplyCompletion(session.RoomID, "a", 55)
	require.True(t, ok)
	assert.False(t, finalized)
	assert.Equal(t, 55, snapshot.Scores["a"])
}

func TestRegistryConcurrentCompletionFinalizesExactlyOnce(t *testing.T) {
	for i := 0; i < 100; i++ {
		r := NewRegistry()
		session, err := r.Create(slots("a", "b"), "Technical", nil)
		require.NoError(t, err)

		var finalizedCount int32
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, connID := range []string{"a", "b", "a", "b"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, finalized, _ := r.ApplyCompletion(session.RoomID, id, 10); finalized {
					mu.Lock()
					finalizedCount++
					mu.Unlock()
				}
			}(connID)
		}
		wg.Wait()

		assert.Equal(t, int32(1), finalizedCount)
	}
}

func TestRegistryCompletionFreesConnections(t *testing.T) {
	r := NewRegistry()
	session, err := r.Create(slots("a", "b"), "Technical", nil)
	require.NoError(t, err)

	_, _, _ = r.ApplyCompletion(session.RoomID, "a", 10)
	_, _, _ = r.ApplyCompletion(session.RoomID, "b", 20)

	// Completed sessions stay readable but no longer bind the players.
	_, exists := r.Get(session.RoomID)
	assert.True(t, exists)
	_, active := r.ActiveRoomFor("a")
	assert.False(t, active)

	_, err = r.Create(slots("a", "b"), "Aptitude", nil)
	assert.NoError(t, err)
}

func TestRegistryPruneCompleted(t *testing.T) {
	r := NewRegistry()
	session, err := r.Create(slots("a", "b"), "Technical", nil)
	require.NoError(t, err)

	_, _, _ = r.ApplyCompletion(session.RoomID, "a", 10)
	_, _, _ = r.ApplyCompletion(session.RoomID, "b", 20)

	assert.Equal(t, 0, r.PruneCompleted(time.Hour))
	assert.Equal(t, 1, r.PruneCompleted(0))

	_, exists := r.Get(session.RoomID)
	assert.False(t, exists)
}
