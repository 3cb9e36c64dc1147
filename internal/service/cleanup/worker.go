package cleanup

import (
	"log"
	"time"

	"github.com/skillduels/backend/internal/service/duel"
)

// Worker prunes completed duel sessions from the in-memory registry so
// retention stays bounded.
type Worker struct {
	registry *duel.Registry
	maxAge   time.Duration
}

func NewWorker(registry *duel.Registry, maxAge time.Duration) *Worker {
	return &Worker{registry: registry, maxAge: maxAge}
}

// Start initiates the background ticker
func (w *Worker) Start() {
	go w.runCleanup()

	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for range ticker.C {
			w.runCleanup()
		}
	}()
	log.Println("[CLEANUP] Background worker started")
}

func (w *Worker) runCleanup() {
	if count := w.registry.PruneCompleted(w.maxAge); count > 0 {
		log.Printf("[CLEANUP] Removed %d completed duel sessions", count)
	}
}
