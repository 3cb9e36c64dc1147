package matchmaking

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillduels/backend/internal/domain"
)

func req(connID string, userID int64, category string) *domain.MatchRequest {
	return &domain.MatchRequest{
		ConnID:      connID,
		UserID:      userID,
		DisplayName: "player-" + connID,
		Category:    category,
	}
}

func TestQueueRejectsDuplicateConnection(t *testing.T) {
	q := NewQueue()

	require.NoError(t, q.Enqueue(req("c1", 1, "Technical")))
	err := q.Enqueue(req("c1", 1, "Technical"))
	assert.ErrorIs(t, err, domain.ErrAlreadyQueued)
	assert.Equal(t, 1, q.Len())
}

func TestFindAndRemoveMatchFIFO(t *testing.T) {
	q := NewQueue()

	require.NoError(t, q.Enqueue(req("c1", 1, "Technical")))
	require.NoError(t, q.Enqueue(req("c2", 2, "Technical")))

	// Earliest-inserted entry wins the tie-break.
	match, found := q.FindAndRemoveMatch("Technical", 3)
	require.True(t, found)
	assert.Equal(t, "c1", match.ConnID)
	assert.Equal(t, 1, q.Len())
}

func TestFindAndRemoveMatchFilters(t *testing.T) {
	q := NewQueue()

	require.NoError(t, q.Enqueue(req("c1", 1, "Technical")))

	// Same user never matches itself.
	_, found := q.FindAndRemoveMatch("Technical", 1)
	assert.False(t, found)

	// Different category does not match.
	_, found = q.FindAndRemoveMatch("Aptitude", 2)
	assert.False(t, found)

	// A miss leaves the queue untouched.
	assert.Equal(t, 1, q.Len())
}

func TestRemoveByConnection(t *testing.T) {
	q := NewQueue()

	require.NoError(t, q.Enqueue(req("c1", 1, "Technical")))

	assert.True(t, q.RemoveByConnection("c1"))
	assert.False(t, q.RemoveByConnection("c1"))
	assert.Equal(t, 0, q.Len())
}

func TestConcurrentMatchingNeverDuplicates(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 50; i++ {
		require.NoError(t, q.Enqueue(req(fmt.Sprintf("c%d", i), int64(i), "Technical")))
	}

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			match, found := q.FindAndRemoveMatch("Technical", -1)
			if !found {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			require.False(t, seen[match.ConnID], "request %s matched twice", match.ConnID)
			seen[match.ConnID] = true
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 25)
	assert.Equal(t, 25, q.Len())
}
