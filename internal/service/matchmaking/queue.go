package matchmaking

import (
	"log"
	"sync"
	"time"

	"github.com/skillduels/backend/internal/domain"
)

// Queue holds pending duel requests in insertion order. All operations
// are serialized under one mutex; FindAndRemoveMatch is a single atomic
// check-and-remove step.
type Queue struct {
	mu      sync.Mutex
	entries []*domain.MatchRequest
	byConn  map[string]*domain.MatchRequest
}

func NewQueue() *Queue {
	return &Queue{
		byConn: make(map[string]*domain.MatchRequest),
	}
}

// Enqueue adds a request to the back of the queue. A connection may hold
// at most one pending request.
func (q *Queue) Enqueue(req *domain.MatchRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byConn[req.ConnID]; exists {
		return domain.ErrAlreadyQueued
	}

	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}
	q.entries = append(q.entries, req)
	q.byConn[req.ConnID] = req

	log.Printf("[QUEUE] %s (user %d) waiting in %q (%d in queue)",
		req.ConnID, req.UserID, req.Category, len(q.entries))
	return nil
}

// FindAndRemoveMatch returns the earliest-inserted request with the same
// category and a different user ID, removing it from the queue. The queue
// is left untouched when no opponent qualifies.
func (q *Queue) FindAndRemoveMatch(category string, excludeUserID int64) (*domain.MatchRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, req := range q.entries {
		if req.Category == category && req.UserID != excludeUserID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			delete(q.byConn, req.ConnID)
			return req, true
		}
	}
	return nil, false
}

// RemoveByConnection removes a pending request. Reports whether an entry
// was removed; the fallback scheduler uses this as the race arbiter
// between a real match and the bot fallback.
func (q *Queue) RemoveByConnection(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byConn[connID]; !exists {
		return false
	}
	delete(q.byConn, connID)
	for i, req := range q.entries {
		if req.ConnID == connID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	return true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
