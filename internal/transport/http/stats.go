package http

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillduels/backend/internal/domain"
)

type LatestDuelFinder interface {
	FindLatestCompleted(ctx context.Context) (*domain.DuelRecord, error)
}

type DuelCache interface {
	GetLatest(ctx context.Context) (*domain.DuelRecord, error)
	SetLatest(ctx context.Context, rec *domain.DuelRecord) error
}

// StatsHandler serves read-only duel stats.
type StatsHandler struct {
	duels LatestDuelFinder
	cache DuelCache // optional, can be nil
}

func NewStatsHandler(duels LatestDuelFinder, cache DuelCache) *StatsHandler {
	return &StatsHandler{duels: duels, cache: cache}
}

// GetLatestDuel returns the most recently completed duel, cache-aside
// through Redis when available.
func (h *StatsHandler) GetLatestDuel(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		if rec, err := h.cache.GetLatest(ctx); err == nil && rec != nil {
			c.JSON(http.StatusOK, rec)
			return
		}
	}

	rec, err := h.duels.FindLatestCompleted(ctx)
	if err != nil {
		log.Printf("[STATS] Failed to load latest duel: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load latest duel"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed duels yet"})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetLatest(ctx, rec); err != nil {
			log.Printf("[STATS] Warning: failed to cache latest duel: %v", err)
		}
	}

	c.JSON(http.StatusOK, rec)
}
