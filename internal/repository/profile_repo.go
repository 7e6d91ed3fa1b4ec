package repository

import (
	"context"
	"errors"

	"codearena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile nil, nil для неизвестного игрока
func (r *ProfileRepository) GetProfile(ctx context.Context, playerID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRow(ctx,
		`SELECT display_name, rank, avatar_url FROM players WHERE id = $1`,
		playerID,
	).Scan(&p.Name, &p.Rank, &p.Avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
