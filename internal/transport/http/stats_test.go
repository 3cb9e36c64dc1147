package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/skillduels/backend/internal/domain"
)

type stubFinder struct {
	rec *domain.DuelRecord
	err error
}

func (s stubFinder) FindLatestCompleted(context.Context) (*domain.DuelRecord, error) {
	return s.rec, s.err
}

func doRequest(finder LatestDuelFinder) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/duels/latest", NewStatsHandler(finder, nil).GetLatestDuel)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/duels/latest", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetLatestDuel(t *testing.T) {
	rec := &domain.DuelRecord{
		ID:       7,
		RoomID:   "room-1",
		Category: "Technical",
		Status:   domain.StateCompleted,
		Winner:   "Alice",
		EndedAt:  time.Now(),
	}

	w := doRequest(stubFinder{rec: rec})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"roomId":"room-1"`)
}

func TestGetLatestDuelNoneCompleted(t *testing.T) {
	w := doRequest(stubFinder{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLatestDuelStoreFailure(t *testing.T) {
	w := doRequest(stubFinder{err: domain.Error("connection refused")})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
