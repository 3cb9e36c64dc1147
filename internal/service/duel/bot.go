package duel

import (
	"log"
	"math/rand"
	"time"

	"github.com/skillduels/backend/internal/domain"
)

const (
	botCorrectChance  = 0.7
	botBaseScore      = 10
	botBonusScoreSpan = 5
)

// BotSimulator plays the synthetic opponent: one tick per question, each
// tick independently answered correctly with a fixed probability. The
// running score travels through the same relay path as human score
// updates, and the final tick reports completion like a player would.
type BotSimulator struct {
	orch   *Orchestrator
	roomID string
	connID string
	rounds int
	tick   time.Duration
	rng    *rand.Rand
}

func newBotSimulator(orch *Orchestrator, roomID, connID string, rounds int, tick time.Duration) *BotSimulator {
	return &BotSimulator{
		orch:   orch,
		roomID: roomID,
		connID: connID,
		rounds: rounds,
		tick:   tick,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *BotSimulator) Run() {
	// A zero-round duel is valid; the bot just reports immediately.
	if b.rounds == 0 {
		b.orch.CompleteDuel(b.roomID, b.connID, 0)
		return
	}

	score := 0
	ticker := time.NewTicker(b.tick)
	defer ticker.Stop()

	for round := 1; round <= b.rounds; round++ {
		<-ticker.C

		session, exists := b.orch.registry.Get(b.roomID)
		if !exists || session.State != domain.StateActive {
			log.Printf("[BOT] Session %s no longer active, stopping after round %d", b.roomID, round-1)
			return
		}

		if b.rng.Float64() < botCorrectChance {
			score += botBaseScore + b.rng.Intn(botBonusScoreSpan)
		}
		b.orch.RecordScore(b.roomID, b.connID, score)

		if round == b.rounds {
			b.orch.CompleteDuel(b.roomID, b.connID, score)
			return
		}
	}
}
