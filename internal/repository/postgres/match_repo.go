package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/underdark/internal/model"
)

// MatchRepo handles match database operations.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo creates a MatchRepo.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Create inserts a new active match.
func (r *MatchRepo) Create(ctx context.Context, id string, seed int64, seats []string) (*model.Match, error) {
	var m model.Match
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO matches (id, seed, seats)
		 VALUES ($1, $2, $3)
		 RETURNING id, seed, seats, status, created_at`,
		id, seed, pq.Array(seats),
	).Scan(&m.ID, &m.Seed, pq.Array(&m.Seats), &m.Status, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return &m, nil
}

// FindByID returns a match by ID, or nil if there is none.
func (r *MatchRepo) FindByID(ctx context.Context, id string) (*model.Match, error) {
	var m model.Match
	var winner sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, seed, seats, status, winner, created_at, finished_at
		 FROM matches WHERE id = $1`, id,
	).Scan(&m.ID, &m.Seed, pq.Array(&m.Seats), &m.Status, &winner, &m.CreatedAt, &m.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	m.Winner = winner.String
	return &m, nil
}

// SetFinished marks a match as finished. An empty winner records a draw.
func (r *MatchRepo) SetFinished(ctx context.Context, id, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = 'finished', winner = $1, finished_at = now() WHERE id = $2`,
		nullStr(winner), id,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
