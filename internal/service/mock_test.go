package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/underdark/internal/model"
)

type mockMatchRepo struct {
	matches map[string]*model.Match
}

func newMockMatchRepo() *mockMatchRepo {
	return &mockMatchRepo{matches: make(map[string]*model.Match)}
}

func (m *mockMatchRepo) Create(_ context.Context, id string, seed int64, seats []string) (*model.Match, error) {
	rec := &model.Match{
		ID:        id,
		Seed:      seed,
		Seats:     append([]string(nil), seats...),
		Status:    "active",
		CreatedAt: time.Now(),
	}
	m.matches[id] = rec
	return rec, nil
}

func (m *mockMatchRepo) FindByID(_ context.Context, id string) (*model.Match, error) {
	rec, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *mockMatchRepo) SetFinished(_ context.Context, id, winner string) error {
	if rec, ok := m.matches[id]; ok {
		rec.Status = "finished"
		rec.Winner = winner
		now := time.Now()
		rec.FinishedAt = &now
	}
	return nil
}

type mockCommandRepo struct {
	cmds      map[string][]model.CommandRecord
	appendErr error
}

func newMockCommandRepo() *mockCommandRepo {
	return &mockCommandRepo{cmds: make(map[string][]model.CommandRecord)}
}

func (m *mockCommandRepo) Append(_ context.Context, matchID string, seq int, payload json.RawMessage) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	for _, c := range m.cmds[matchID] {
		if c.Seq == seq {
			return errors.New("duplicate seq")
		}
	}
	m.cmds[matchID] = append(m.cmds[matchID], model.CommandRecord{
		MatchID:   matchID,
		Seq:       seq,
		Payload:   append(json.RawMessage(nil), payload...),
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *mockCommandRepo) ListByMatch(_ context.Context, matchID string) ([]model.CommandRecord, error) {
	out := append([]model.CommandRecord(nil), m.cmds[matchID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *mockCommandRepo) NextSeq(_ context.Context, matchID string) (int, error) {
	return len(m.cmds[matchID]) + 1, nil
}

type mockCache struct {
	mu         sync.Mutex
	snapshots  map[string]json.RawMessage
	sets       int
	alwaysMiss bool // GetSnapshot reports a miss every time
}

func newMockCache() *mockCache {
	return &mockCache{snapshots: make(map[string]json.RawMessage)}
}

func (m *mockCache) SetSnapshot(_ context.Context, matchID string, snapshot json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[matchID] = snapshot
	m.sets++
	return nil
}

func (m *mockCache) GetSnapshot(_ context.Context, matchID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alwaysMiss {
		return nil, nil
	}
	return m.snapshots[matchID], nil
}

func (m *mockCache) DeleteMatchData(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, matchID)
	return nil
}

type broadcastEvent struct {
	matchID   string
	eventType string
	data      any
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (m *mockBroadcaster) BroadcastMatchEvent(matchID, eventType string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, broadcastEvent{matchID, eventType, data})
}

func (m *mockBroadcaster) count(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}
