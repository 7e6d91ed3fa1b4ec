package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"codearena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchHistoryRepository struct {
	db *pgxpool.Pool
}

func NewMatchHistoryRepository(db *pgxpool.Pool) *MatchHistoryRepository {
	return &MatchHistoryRepository{db: db}
}

// SaveMatch пишет результат матча; повторная запись того же матча игнорируется
func (r *MatchHistoryRepository) SaveMatch(ctx context.Context, rec *domain.MatchRecord) error {
	pa, err := json.Marshal(rec.PlayerA)
	if err != nil {
		return fmt.Errorf("marshal player a: %w", err)
	}
	pb, err := json.Marshal(rec.PlayerB)
	if err != nil {
		return fmt.Errorf("marshal player b: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO match_history (
			match_id, player_a_id, player_b_id, player_a, player_b, winner_id, reason,
			challenge_id, difficulty, progress_a, progress_b, started_at, ended_at, completion_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (match_id) DO NOTHING`,
		rec.MatchID, rec.PlayerAID, rec.PlayerBID, pa, pb, rec.WinnerID, rec.Reason,
		rec.ChallengeID, rec.Difficulty, rec.ProgressA, rec.ProgressB, rec.StartedAt, rec.EndedAt, rec.CompletionMS,
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", rec.MatchID, err)
	}
	return nil
}

const historyColumns = `match_id, player_a_id, player_b_id, player_a, player_b, winner_id, reason,
	challenge_id, difficulty, progress_a, progress_b, started_at, ended_at, completion_ms`

// GetByID nil, nil если матча нет
func (r *MatchHistoryRepository) GetByID(ctx context.Context, matchID string) (*domain.MatchRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+historyColumns+` FROM match_history WHERE match_id = $1`, matchID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ListByPlayer последние матчи игрока
func (r *MatchHistoryRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*domain.MatchRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+historyColumns+`
		 FROM match_history
		 WHERE player_a_id = $1 OR player_b_id = $1
		 ORDER BY ended_at DESC
		 LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.MatchRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*domain.MatchRecord, error) {
	var (
		rec    domain.MatchRecord
		pa, pb []byte
	)
	err := row.Scan(&rec.MatchID, &rec.PlayerAID, &rec.PlayerBID, &pa, &pb, &rec.WinnerID, &rec.Reason,
		&rec.ChallengeID, &rec.Difficulty, &rec.ProgressA, &rec.ProgressB, &rec.StartedAt, &rec.EndedAt, &rec.CompletionMS)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pa, &rec.PlayerA); err != nil {
		return nil, fmt.Errorf("decode player a: %w", err)
	}
	if err := json.Unmarshal(pb, &rec.PlayerB); err != nil {
		return nil, fmt.Errorf("decode player b: %w", err)
	}
	return &rec, nil
}
