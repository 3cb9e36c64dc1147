package duel

import (
	"context"
	"log"
	"time"

	"github.com/skillduels/backend/internal/domain"
	"github.com/skillduels/backend/internal/service/matchmaking"
	"github.com/skillduels/backend/pkg/uid"
)

// Store is the persistence gateway the orchestrator writes through.
// Failures are non-fatal to in-progress duels.
type Store interface {
	SampleQuestions(ctx context.Context, category string, n int) ([]domain.Question, error)
	CreateDuel(ctx context.Context, rec *domain.DuelRecord) (int64, error)
	UpdateDuelResult(ctx context.Context, id int64, rec *domain.DuelRecord) error
	FindLatestCompleted(ctx context.Context) (*domain.DuelRecord, error)
}

// Publisher is the transport channel delivering events to live clients.
// Delivery is fire-and-forget; a failed send is logged by the transport
// and never retried here.
type Publisher interface {
	Send(connID string, msg domain.ServerMessage) error
	Broadcast(msg domain.ServerMessage)
}

type Options struct {
	FallbackDelay    time.Duration
	BotTickInterval  time.Duration
	QuestionsPerDuel int
}

// Orchestrator composes the queue, fallback scheduler and registry into
// the match / start / score / complete operations.
type Orchestrator struct {
	queue     *matchmaking.Queue
	fallback  *matchmaking.FallbackScheduler
	registry  *Registry
	store     Store
	publisher Publisher
	opts      Options
}

func NewOrchestrator(queue *matchmaking.Queue, fallback *matchmaking.FallbackScheduler, registry *Registry, store Store, publisher Publisher, opts Options) *Orchestrator {
	if opts.FallbackDelay <= 0 {
		opts.FallbackDelay = 3 * time.Second
	}
	if opts.BotTickInterval <= 0 {
		opts.BotTickInterval = 3 * time.Second
	}
	if opts.QuestionsPerDuel <= 0 {
		opts.QuestionsPerDuel = 10
	}
	return &Orchestrator{
		queue:     queue,
		fallback:  fallback,
		registry:  registry,
		store:     store,
		publisher: publisher,
		opts:      opts,
	}
}

func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// RequestDuel pairs the caller with the earliest waiting player of the
// same category, or enqueues them and arms the bot fallback.
func (o *Orchestrator) RequestDuel(connID string, userID int64, displayName, category string) error {
	if !domain.IsValidCategory(category) {
		return domain.ErrInvalidCategory
	}
	if roomID, active := o.registry.ActiveRoomFor(connID); active {
		log.Printf("[DUEL] %s requested a duel while in session %s", connID, roomID)
		return domain.ErrDuelInProgress
	}

	opponent, found := o.queue.FindAndRemoveMatch(category, userID)
	if found {
		o.fallback.Cancel(opponent.ConnID)
		req := &domain.MatchRequest{ConnID: connID, UserID: userID, DisplayName: displayName, Category: category}
		o.startHumanDuel(opponent, req, category)
		return nil
	}

	req := &domain.MatchRequest{ConnID: connID, UserID: userID, DisplayName: displayName, Category: category}
	if err := o.queue.Enqueue(req); err != nil {
		return err
	}
	o.publisher.Send(connID, domain.ServerMessage{Type: domain.MsgWaiting})

	// The fired callback only proceeds if the request is still queued, so
	// exactly one of {real match, bot fallback} acts on it.
	o.fallback.Arm(connID, o.opts.FallbackDelay, func() {
		if o.queue.RemoveByConnection(connID) {
			o.startBotDuel(req, category)
		}
	})
	return nil
}

// CancelSearch withdraws a pending request and disarms its fallback.
func (o *Orchestrator) CancelSearch(connID string) {
	if o.queue.RemoveByConnection(connID) {
		log.Printf("[QUEUE] %s left the queue", connID)
	}
	o.fallback.Cancel(connID)
}

// Disconnect cleans up matchmaking state for a closed connection.
// A duel in progress is not finalized on disconnect; the transport stops
// relaying to the departed connection.
func (o *Orchestrator) Disconnect(connID string) {
	o.CancelSearch(connID)
}

func (o *Orchestrator) startHumanDuel(reqA, reqB *domain.MatchRequest, category string) {
	userA, userB := reqA.UserID, reqB.UserID
	players := [2]domain.PlayerSlot{
		{ConnID: reqA.ConnID, UserID: &userA, DisplayName: reqA.DisplayName},
		{ConnID: reqB.ConnID, UserID: &userB, DisplayName: reqB.DisplayName},
	}

	session, ok := o.createSession(players, category)
	if !ok {
		return
	}

	// Each payload tags self by connection ID; clients derive display
	// labels locally.
	o.publisher.Send(players[0].ConnID, matchedMessage(&session, players[0].ConnID, players[1].DisplayName))
	o.publisher.Send(players[1].ConnID, matchedMessage(&session, players[1].ConnID, players[0].DisplayName))
}

func (o *Orchestrator) startBotDuel(req *domain.MatchRequest, category string) {
	userID := req.UserID
	players := [2]domain.PlayerSlot{
		{ConnID: req.ConnID, UserID: &userID, DisplayName: req.DisplayName},
		{ConnID: "bot-" + uid.GenerateConnectionID(), DisplayName: domain.RandomBotName(), IsBot: true},
	}

	session, ok := o.createSession(players, category)
	if !ok {
		return
	}

	o.publisher.Send(req.ConnID, matchedMessage(&session, req.ConnID, players[1].DisplayName))

	sim := newBotSimulator(o, session.RoomID, players[1].ConnID, len(session.Questions), o.opts.BotTickInterval)
	go sim.Run()
}

// createSession samples the question set, registers the session and
// persists the initial record. Persistence failures leave the session
// without a durable ID but never abort the duel.
func (o *Orchestrator) createSession(players [2]domain.PlayerSlot, category string) (domain.DuelSession, bool) {
	ctx := context.Background()

	questions, err := o.store.SampleQuestions(ctx, category, o.opts.QuestionsPerDuel)
	if err != nil {
		log.Printf("[DUEL] Failed to sample questions for %q: %v", category, err)
		questions = nil
	}

	session, err := o.registry.Create(players, category, questions)
	if err != nil {
		log.Printf("[DUEL] Failed to create session: %v", err)
		return domain.DuelSession{}, false
	}

	id, err := o.store.CreateDuel(ctx, session.Record())
	if err != nil {
		log.Printf("[DUEL] Failed to persist session %s: %v", session.RoomID, err)
	} else {
		o.registry.SetPersistentID(session.RoomID, id)
	}
	return session, true
}

// RecordScore updates a participant's running score and relays it to the
// opposing participant only. Best-effort: an unknown room is logged and
// ignored.
func (o *Orchestrator) RecordScore(roomID, connID string, score int) {
	opponent, ok := o.registry.ApplyScore(roomID, connID, score)
	if !ok {
		log.Printf("[DUEL] Score update for unknown or finished room %s from %s", roomID, connID)
		return
	}
	if opponent.IsBot {
		return
	}
	s := score
	o.publisher.Send(opponent.ConnID, domain.ServerMessage{
		Type:   domain.MsgOpponentScore,
		RoomID: roomID,
		Score:  &s,
	})
}

// CompleteDuel records one participant's final score. The session is
// finalized exactly once, when the second report arrives: results are
// computed by score comparison, the durable record is written and a
// global duel update is broadcast.
func (o *Orchestrator) CompleteDuel(roomID, connID string, finalScore int) {
	snapshot, finalized, ok := o.registry.ApplyCompletion(roomID, connID, finalScore)
	if !ok {
		log.Printf("[DUEL] Completion for unknown room %s from %s", roomID, connID)
		return
	}
	if !finalized {
		return
	}

	rec := snapshot.Record()
	ctx := context.Background()
	if snapshot.PersistentID != nil {
		if err := o.store.UpdateDuelResult(ctx, *snapshot.PersistentID, rec); err != nil {
			log.Printf("[DUEL] Failed to persist result for %s: %v", roomID, err)
		}
	} else {
		// Initial insert failed at creation time; try a best-effort create
		// so the completed duel is not lost.
		if id, err := o.store.CreateDuel(ctx, rec); err != nil {
			log.Printf("[DUEL] Failed to persist completed duel %s: %v", roomID, err)
		} else {
			o.registry.SetPersistentID(roomID, id)
		}
	}

	log.Printf("[DUEL] Session %s completed: %s %d - %d %s",
		roomID, rec.Players[0].DisplayName, rec.Players[0].Score,
		rec.Players[1].Score, rec.Players[1].DisplayName)

	o.publisher.Broadcast(domain.ServerMessage{
		Type: domain.MsgGlobalDuelUpdate,
		Duel: rec,
	})
}

func matchedMessage(session *domain.DuelSession, selfID, opponentName string) domain.ServerMessage {
	return domain.ServerMessage{
		Type:         domain.MsgMatched,
		RoomID:       session.RoomID,
		SelfID:       selfID,
		OpponentName: opponentName,
		Questions:    session.Questions,
	}
}
