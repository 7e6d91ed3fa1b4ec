package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"codearena/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ChallengeRepository struct {
	db *pgxpool.Pool
}

func NewChallengeRepository(db *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// ListChallenges активные задачи каталога
func (r *ChallengeRepository) ListChallenges(ctx context.Context) ([]domain.Challenge, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, difficulty, test_cases, starter_code
		 FROM challenges
		 WHERE is_active = true
		 ORDER BY sort_order, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Challenge
	for rows.Next() {
		var (
			ch    domain.Challenge
			cases []byte
		)
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.Description, &ch.Difficulty, &cases, &ch.StarterCode); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cases, &ch.TestCases); err != nil {
			return nil, fmt.Errorf("challenge %s test cases: %w", ch.ID, err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}
