package model

import (
	"encoding/json"
	"time"
)

// Match is the stored record of one game.
type Match struct {
	ID         string     `json:"id"`
	Seed       int64      `json:"seed"`
	Seats      []string   `json:"seats"`
	Status     string     `json:"status"` // active, finished
	Winner     string     `json:"winner,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CommandRecord is one accepted player command in a match's log.
type CommandRecord struct {
	MatchID   string          `json:"match_id"`
	Seq       int             `json:"seq"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
