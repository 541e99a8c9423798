package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/underdark/internal/model"
)

// ErrDuplicateSeq is returned when a sequence number is already taken.
var ErrDuplicateSeq = errors.New("command sequence already recorded")

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// CommandRepo handles the append-only command log.
type CommandRepo struct {
	db *sql.DB
}

// NewCommandRepo creates a CommandRepo.
func NewCommandRepo(db *sql.DB) *CommandRepo {
	return &CommandRepo{db: db}
}

// Append records one command. seq must be unused for the match.
func (r *CommandRepo) Append(ctx context.Context, matchID string, seq int, payload json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO commands (match_id, seq, payload) VALUES ($1, $2, $3)`,
		matchID, seq, string(payload),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: match %s seq %d", ErrDuplicateSeq, matchID, seq)
	}
	if err != nil {
		return fmt.Errorf("append command: %w", err)
	}
	return nil
}

// ListByMatch returns a match's commands in sequence order.
func (r *CommandRepo) ListByMatch(ctx context.Context, matchID string) ([]model.CommandRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, seq, payload, created_at FROM commands WHERE match_id = $1 ORDER BY seq`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close()

	var cmds []model.CommandRecord
	for rows.Next() {
		var c model.CommandRecord
		var payload []byte
		if err := rows.Scan(&c.MatchID, &c.Seq, &payload, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		c.Payload = json.RawMessage(payload)
		cmds = append(cmds, c)
	}
	return cmds, rows.Err()
}

// NextSeq returns the sequence number the next command should use.
func (r *CommandRepo) NextSeq(ctx context.Context, matchID string) (int, error) {
	var seq int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM commands WHERE match_id = $1`, matchID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}
