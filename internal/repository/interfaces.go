package repository

import (
	"context"
	"encoding/json"

	"github.com/freeeve/underdark/internal/model"
)

// MatchRepository defines match record operations.
type MatchRepository interface {
	Create(ctx context.Context, id string, seed int64, seats []string) (*model.Match, error)
	FindByID(ctx context.Context, id string) (*model.Match, error)
	SetFinished(ctx context.Context, id, winner string) error
}

// CommandRepository defines the append-only command log.
type CommandRepository interface {
	Append(ctx context.Context, matchID string, seq int, payload json.RawMessage) error
	ListByMatch(ctx context.Context, matchID string) ([]model.CommandRecord, error)
	NextSeq(ctx context.Context, matchID string) (int, error)
}

// MatchCache defines live snapshot operations (Redis).
type MatchCache interface {
	SetSnapshot(ctx context.Context, matchID string, snapshot json.RawMessage) error
	GetSnapshot(ctx context.Context, matchID string) (json.RawMessage, error)
	DeleteMatchData(ctx context.Context, matchID string) error
}
