package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

type RatingRepository interface {
	RatingFor(ctx context.Context, playerID string) (int, error)
}

type postgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

func (r *postgresRatingRepository) RatingFor(ctx context.Context, playerID string) (int, error) {
	var rating int
	err := r.db.QueryRowContext(ctx, `SELECT rating FROM player_ratings WHERE player_id = $1`, playerID).Scan(&rating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: player %s", ErrRatingNotFound, playerID)
		}
		return 0, fmt.Errorf("failed to read rating for player %s: %w", playerID, err)
	}
	return rating, nil
}

type MemoryRatingRepository struct {
	mu      sync.RWMutex
	ratings map[string]int
}

func NewMemoryRatingRepository() *MemoryRatingRepository {
	return &MemoryRatingRepository{ratings: make(map[string]int)}
}

func (r *MemoryRatingRepository) Set(playerID string, rating int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[playerID] = rating
}

func (r *MemoryRatingRepository) RatingFor(ctx context.Context, playerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rating, ok := r.ratings[playerID]
	if !ok {
		return 0, fmt.Errorf("%w: player %s", ErrRatingNotFound, playerID)
	}
	return rating, nil
}
