package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillduels/backend/internal/domain"
)

type DuelRepo struct {
	DB *sql.DB
}

func NewDuelRepo(db *sql.DB) *DuelRepo {
	return &DuelRepo{DB: db}
}

// CreateDuel inserts the initial duel record and returns its ID.
func (r *DuelRepo) CreateDuel(ctx context.Context, rec *domain.DuelRecord) (int64, error) {
	questionIDs, err := json.Marshal(rec.QuestionIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal question ids: %v", err)
	}

	query := `
	INSERT INTO duels (room_id, category, status, winner,
		player1_user_id, player1_name, player1_score, player1_result,
		player2_user_id, player2_name, player2_score, player2_result,
		question_ids, started_at, ended_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING id;
	`

	var id int64
	err = r.DB.QueryRowContext(ctx, query,
		rec.RoomID, rec.Category, rec.Status, nullString(rec.Winner),
		rec.Players[0].UserID, rec.Players[0].DisplayName, rec.Players[0].Score, rec.Players[0].Result,
		rec.Players[1].UserID, rec.Players[1].DisplayName, rec.Players[1].Score, rec.Players[1].Result,
		questionIDs, rec.StartedAt, nullTime(rec.EndedAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert duel record: %v", err)
	}
	return id, nil
}

// UpdateDuelResult writes the final scores and results for a duel.
func (r *DuelRepo) UpdateDuelResult(ctx context.Context, id int64, rec *domain.DuelRecord) error {
	query := `
	UPDATE duels
	SET status = $2, winner = $3,
	    player1_score = $4, player1_result = $5,
	    player2_score = $6, player2_result = $7,
	    ended_at = $8
	WHERE id = $1;
	`

	_, err := r.DB.ExecContext(ctx, query, id,
		rec.Status, nullString(rec.Winner),
		rec.Players[0].Score, rec.Players[0].Result,
		rec.Players[1].Score, rec.Players[1].Result,
		rec.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update duel result: %v", err)
	}
	return nil
}

// GetDuel retrieves a duel record by ID, or nil when absent.
func (r *DuelRepo) GetDuel(ctx context.Context, id int64) (*domain.DuelRecord, error) {
	query := selectDuelColumns + ` WHERE id = $1;`
	return r.scanDuel(r.DB.QueryRowContext(ctx, query, id))
}

// FindLatestCompleted returns the most recently completed duel, or nil
// when none exists yet.
func (r *DuelRepo) FindLatestCompleted(ctx context.Context) (*domain.DuelRecord, error) {
	query := selectDuelColumns + `
	WHERE status = 'Completed'
	ORDER BY ended_at DESC
	LIMIT 1;
	`
	return r.scanDuel(r.DB.QueryRowContext(ctx, query))
}

const selectDuelColumns = `
	SELECT id, room_id, category, status, winner,
	       player1_user_id, player1_name, player1_score, player1_result,
	       player2_user_id, player2_name, player2_score, player2_result,
	       question_ids, started_at, ended_at
	FROM duels`

func (r *DuelRepo) scanDuel(row *sql.Row) (*domain.DuelRecord, error) {
	var rec domain.DuelRecord
	var winner sql.NullString
	var p1UserID, p2UserID sql.NullInt64
	var questionIDs []byte
	var endedAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.RoomID, &rec.Category, &rec.Status, &winner,
		&p1UserID, &rec.Players[0].DisplayName, &rec.Players[0].Score, &rec.Players[0].Result,
		&p2UserID, &rec.Players[1].DisplayName, &rec.Players[1].Score, &rec.Players[1].Result,
		&questionIDs, &rec.StartedAt, &endedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan duel row: %v", err)
	}

	if winner.Valid {
		rec.Winner = winner.String
	}
	if p1UserID.Valid {
		id := p1UserID.Int64
		rec.Players[0].UserID = &id
	}
	if p2UserID.Valid {
		id := p2UserID.Int64
		rec.Players[1].UserID = &id
	}
	if endedAt.Valid {
		rec.EndedAt = endedAt.Time
	}
	if questionIDs != nil {
		if err := json.Unmarshal(questionIDs, &rec.QuestionIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal question ids: %v", err)
		}
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
