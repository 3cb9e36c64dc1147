package duel

import (
	"log"
	"sync"
	"time"

	"github.com/skillduels/backend/internal/domain"
	"github.com/skillduels/backend/pkg/uid"
)

// Registry is the single serialization point for duel session state.
// Every mutation happens under one mutex; methods hand out deep copies so
// callers never touch shared state. Completed sessions stay in the table
// for historical lookups until the cleanup worker prunes them.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*domain.DuelSession
	byConn   map[string]string // connID → roomID, Active sessions only
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*domain.DuelSession),
		byConn:   make(map[string]string),
	}
}

// Create builds a new Active session. A connection already bound to an
// Active session is rejected, keeping each player in at most one duel.
func (r *Registry) Create(players [2]domain.PlayerSlot, category string, questions []domain.Question) (domain.DuelSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range players {
		if roomID, exists := r.byConn[p.ConnID]; exists {
			log.Printf("[REGISTRY] %s already in active session %s", p.ConnID, roomID)
			return domain.DuelSession{}, domain.ErrDuelInProgress
		}
	}

	session := &domain.DuelSession{
		RoomID:      uid.GenerateRoomID(),
		Category:    category,
		Players:     players,
		Questions:   questions,
		Scores:      make(map[string]int, 2),
		CompletedBy: make(map[string]bool, 2),
		State:       domain.StateActive,
		CreatedAt:   time.Now(),
	}
	for _, p := range players {
		session.Scores[p.ConnID] = 0
		r.byConn[p.ConnID] = session.RoomID
	}
	r.sessions[session.RoomID] = session

	log.Printf("[REGISTRY] Created session %s: %s vs %s (%s)",
		session.RoomID, players[0].DisplayName, players[1].DisplayName, category)
	return session.Clone(), nil
}

func (r *Registry) Get(roomID string) (domain.DuelSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[roomID]
	if !exists {
		return domain.DuelSession{}, false
	}
	return session.Clone(), true
}

// ActiveRoomFor returns the Active session a connection belongs to.
func (r *Registry) ActiveRoomFor(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, exists := r.byConn[connID]
	return roomID, exists
}

// SetPersistentID reconciles the durable record ID after the create call
// returns. The session may have completed in the meantime; the ID is
// still recorded so finalization can update the right row.
func (r *Registry) SetPersistentID(roomID string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[roomID]; exists {
		session.PersistentID = &id
	}
}

// ApplyScore records a live score update and returns the opposing slot
// for relay. Not applied once the session has completed.
func (r *Registry) ApplyScore(roomID, connID string, score int) (domain.PlayerSlot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[roomID]
	if !exists || session.State != domain.StateActive {
		return domain.PlayerSlot{}, false
	}
	opponent, exists := session.Opponent(connID)
	if !exists {
		return domain.PlayerSlot{}, false
	}

	session.Scores[connID] = score
	return opponent, true
}

// ApplyCompletion records a participant's final score and completion
// flag. When both participants have reported, the session transitions to
// Completed exactly once and finalized is true for that one caller.
// Repeated calls after finalization are no-ops.
func (r *Registry) ApplyCompletion(roomID, connID string, finalScore int) (snapshot domain.DuelSession, finalized, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[roomID]
	if !exists {
		return domain.DuelSession{}, false, false
	}
	if _, isPlayer := session.Player(connID); !isPlayer {
		return domain.DuelSession{}, false, false
	}
	if session.State == domain.StateCompleted {
		return session.Clone(), false, true
	}

	session.Scores[connID] = finalScore
	session.CompletedBy[connID] = true

	if len(session.CompletedBy) == 2 {
		session.State = domain.StateCompleted
		session.CompletedAt = time.Now()
		for _, p := range session.Players {
			delete(r.byConn, p.ConnID)
		}
		finalized = true
	}
	return session.Clone(), finalized, true
}

// PruneCompleted drops Completed sessions older than maxAge and returns
// how many were removed.
func (r *Registry) PruneCompleted(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	now := time.Now()
	for roomID, session := range r.sessions {
		if session.State == domain.StateCompleted && now.Sub(session.CompletedAt) > maxAge {
			delete(r.sessions, roomID)
			count++
		}
	}
	return count
}
