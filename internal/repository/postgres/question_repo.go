package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/skillduels/backend/internal/domain"
)

type QuestionRepo struct {
	DB *sql.DB
}

func NewQuestionRepo(db *sql.DB) *QuestionRepo {
	return &QuestionRepo{DB: db}
}

// SampleQuestions returns up to n random questions from a category,
// without replacement. An empty category yields an empty set.
func (r *QuestionRepo) SampleQuestions(ctx context.Context, category string, n int) ([]domain.Question, error) {
	query := `
	SELECT id, title, options, correct_answer, category, difficulty
	FROM questions
	WHERE category = $1
	ORDER BY random()
	LIMIT $2;
	`

	rows, err := r.DB.QueryContext(ctx, query, category, n)
	if err != nil {
		return nil, fmt.Errorf("failed to sample questions: %v", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var optionsJSON []byte

		if err := rows.Scan(&q.ID, &q.Title, &optionsJSON, &q.CorrectAnswer, &q.Category, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %v", err)
		}
		if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal question options: %v", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
