package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/underdark/internal/logger"
	"github.com/freeeve/underdark/internal/model"
	"github.com/freeeve/underdark/internal/repository"
	"github.com/freeeve/underdark/pkg/underdark"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchFinished = errors.New("match is finished")
	ErrCorruptLog    = errors.New("command log cannot be replayed")
)

// Outcome reports what a submitted command did to the match.
type Outcome struct {
	Seq       int      `json:"seq"`
	Completed int      `json:"completed"`
	Failures  []string `json:"failures,omitempty"`
	Cancelled int      `json:"cancelled"`
	State     string   `json:"action_state"`
	Finished  bool     `json:"finished"`
}

// liveMatch is a rebuilt match kept in memory between commands.
type liveMatch struct {
	match   *underdark.Match
	outcome *Outcome // non-nil while a submitted command is being applied
}

// MatchService runs matches from their command logs. Every accepted command
// is appended to Postgres, and the resulting snapshot is cached in Redis.
type MatchService struct {
	matchRepo   repository.MatchRepository
	commandRepo repository.CommandRepository
	cache       repository.MatchCache
	broadcaster Broadcaster

	newBoard  func() *underdark.Board
	newMarket func() []*underdark.Card

	live sync.Map // matchID -> *liveMatch

	// matchLocks serializes commands per match so sequence numbers and the
	// in-memory state advance together.
	matchLocks sync.Map
}

// NewMatchService creates a MatchService playing on the demo board.
func NewMatchService(
	matchRepo repository.MatchRepository,
	commandRepo repository.CommandRepository,
	cache repository.MatchCache,
	broadcaster Broadcaster,
) *MatchService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &MatchService{
		matchRepo:   matchRepo,
		commandRepo: commandRepo,
		cache:       cache,
		broadcaster: broadcaster,
		newBoard:    underdark.DemoBoard,
		newMarket:   underdark.DemoMarket,
	}
}

func (s *MatchService) matchLock(matchID string) *sync.Mutex {
	v, _ := s.matchLocks.LoadOrStore(matchID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// CreateMatch seats the given colors in order and stores a new match.
func (s *MatchService) CreateMatch(ctx context.Context, seed int64, seats []underdark.Color) (*model.Match, error) {
	id := uuid.NewString()
	lm, err := s.build(logger.WithMatchID(ctx, id), seed, seats)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(seats))
	for i, c := range seats {
		names[i] = string(c)
	}
	rec, err := s.matchRepo.Create(ctx, id, seed, names)
	if err != nil {
		return nil, err
	}
	s.live.Store(id, lm)

	if err := s.cacheSnapshot(ctx, id, lm.match); err != nil {
		log.Warn().Err(err).Str("matchId", id).Msg("Failed to cache initial snapshot")
	}
	s.broadcaster.BroadcastMatchEvent(id, EventMatchCreated, map[string]any{
		"seats": names,
		"seed":  seed,
	})
	log.Info().Str("matchId", id).Strs("seats", names).Int64("seed", seed).Msg("Match created")
	return rec, nil
}

// Submit applies one command to a match and records it. Malformed commands
// are returned as errors and never recorded; rejected clicks are recorded
// and reported in the Outcome.
func (s *MatchService) Submit(ctx context.Context, matchID string, cmd underdark.Command) (*Outcome, error) {
	mu := s.matchLock(matchID)
	mu.Lock()
	defer mu.Unlock()

	ctx = logger.WithMatchID(ctx, matchID)
	l := logger.ForMatch(ctx)

	lm, rec, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if rec.Status == "finished" || lm.match.Finished() {
		return nil, ErrMatchFinished
	}

	seq, err := s.commandRepo.NextSeq(ctx, matchID)
	if err != nil {
		return nil, err
	}
	cmd.Seq = seq

	out := &Outcome{Seq: seq}
	lm.outcome = out
	err = lm.match.Apply(cmd)
	lm.outcome = nil
	if err != nil {
		l.Debug().Err(err).Stringer("cmd", cmd).Msg("Command rejected")
		return nil, err
	}
	out.State = lm.match.Actions.State().String()
	out.Finished = lm.match.Finished()

	payload, err := json.Marshal(cmd)
	if err != nil {
		s.live.Delete(matchID)
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	logger.LogCommand(l, payload)
	if err := s.commandRepo.Append(ctx, matchID, seq, payload); err != nil {
		// The in-memory match is ahead of the log now; rebuild on next use.
		s.live.Delete(matchID)
		return nil, err
	}

	if err := s.cacheSnapshot(ctx, matchID, lm.match); err != nil {
		l.Warn().Err(err).Msg("Failed to cache snapshot")
	}
	s.broadcastOutcome(matchID, cmd, out)

	if out.Finished {
		s.finish(ctx, matchID, lm.match)
	}
	return out, nil
}

// ActiveHand returns the seat to move and the IDs of the cards in its hand.
func (s *MatchService) ActiveHand(ctx context.Context, matchID string) (underdark.Color, []string, error) {
	mu := s.matchLock(matchID)
	mu.Lock()
	defer mu.Unlock()

	lm, _, err := s.load(logger.WithMatchID(ctx, matchID), matchID)
	if err != nil {
		return underdark.ColorNone, nil, err
	}
	p := lm.match.ActivePlayer()
	ids := make([]string, len(p.Hand))
	for i, c := range p.Hand {
		ids[i] = c.ID
	}
	return p.Color, ids, nil
}

// Snapshot returns the match snapshot JSON, preferring the cached copy.
func (s *MatchService) Snapshot(ctx context.Context, matchID string) (json.RawMessage, error) {
	if cached, err := s.cache.GetSnapshot(ctx, matchID); err != nil {
		log.Warn().Err(err).Str("matchId", matchID).Msg("Snapshot cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	mu := s.matchLock(matchID)
	mu.Lock()
	defer mu.Unlock()

	lm, _, err := s.load(logger.WithMatchID(ctx, matchID), matchID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(lm.match.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.cache.SetSnapshot(ctx, matchID, data); err != nil {
		log.Warn().Err(err).Str("matchId", matchID).Msg("Failed to cache snapshot")
	}
	return data, nil
}

// Replay rebuilds a match from its stored record and command log. The
// result is the caller's own copy; the match being played is never shared.
func (s *MatchService) Replay(ctx context.Context, matchID string) (*underdark.Match, error) {
	rec, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrMatchNotFound
	}
	lm, err := s.rebuild(logger.WithMatchID(ctx, matchID), rec)
	if err != nil {
		return nil, err
	}
	return lm.match, nil
}

func (s *MatchService) load(ctx context.Context, matchID string) (*liveMatch, *model.Match, error) {
	rec, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, ErrMatchNotFound
	}
	if v, ok := s.live.Load(matchID); ok {
		return v.(*liveMatch), rec, nil
	}
	lm, err := s.rebuild(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	s.live.Store(matchID, lm)
	return lm, rec, nil
}

func (s *MatchService) rebuild(ctx context.Context, rec *model.Match) (*liveMatch, error) {
	seats := make([]underdark.Color, len(rec.Seats))
	for i, c := range rec.Seats {
		seats[i] = underdark.Color(c)
	}
	lm, err := s.build(ctx, rec.Seed, seats)
	if err != nil {
		return nil, err
	}

	records, err := s.commandRepo.ListByMatch(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	cmds := make([]underdark.Command, len(records))
	for i, r := range records {
		if err := json.Unmarshal(r.Payload, &cmds[i]); err != nil {
			return nil, fmt.Errorf("%w: seq %d: %v", ErrCorruptLog, r.Seq, err)
		}
	}
	if err := lm.match.Replay(cmds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLog, err)
	}
	l := logger.ForMatch(ctx)
	l.Debug().Int("commands", len(cmds)).Msg("Match rebuilt from log")
	return lm, nil
}

// build creates a fresh match and hooks its action events into the outcome
// of whichever command is being submitted.
func (s *MatchService) build(ctx context.Context, seed int64, seats []underdark.Color) (*liveMatch, error) {
	players := make([]*underdark.Player, len(seats))
	for i, c := range seats {
		players[i] = underdark.NewPlayer(c, underdark.StarterDeck(c))
	}
	m, err := underdark.NewMatch(s.newBoard(), players, underdark.MatchOptions{
		Seed:   seed,
		Market: s.newMarket(),
		Log:    logger.ForMatch(ctx),
	})
	if err != nil {
		return nil, err
	}

	lm := &liveMatch{match: m}
	m.Actions.OnActionCompleted(func() {
		if lm.outcome != nil {
			lm.outcome.Completed++
		}
	})
	m.Actions.OnActionFailed(func(reason string) {
		if lm.outcome != nil {
			lm.outcome.Failures = append(lm.outcome.Failures, reason)
		}
	})
	m.Actions.OnActionCancelled(func() {
		if lm.outcome != nil {
			lm.outcome.Cancelled++
		}
	})
	return lm, nil
}

func (s *MatchService) cacheSnapshot(ctx context.Context, matchID string, m *underdark.Match) error {
	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.cache.SetSnapshot(ctx, matchID, data)
}

func (s *MatchService) broadcastOutcome(matchID string, cmd underdark.Command, out *Outcome) {
	for i := 0; i < out.Completed; i++ {
		s.broadcaster.BroadcastMatchEvent(matchID, EventActionCompleted, map[string]any{
			"seq":   out.Seq,
			"color": cmd.Color,
		})
	}
	for _, reason := range out.Failures {
		s.broadcaster.BroadcastMatchEvent(matchID, EventActionFailed, map[string]any{
			"seq":    out.Seq,
			"color":  cmd.Color,
			"reason": reason,
		})
	}
	if out.Cancelled > 0 {
		s.broadcaster.BroadcastMatchEvent(matchID, EventActionCancelled, map[string]any{
			"seq":   out.Seq,
			"color": cmd.Color,
		})
	}
	s.broadcaster.BroadcastMatchEvent(matchID, EventCommandApplied, out)
}

// finish records the result of a match that has just ended.
func (s *MatchService) finish(ctx context.Context, matchID string, m *underdark.Match) {
	l := logger.ForMatch(ctx)
	winner, scores := Winner(m)
	if err := s.matchRepo.SetFinished(ctx, matchID, string(winner)); err != nil {
		l.Error().Err(err).Msg("Failed to mark match finished")
	}
	if err := s.cache.DeleteMatchData(ctx, matchID); err != nil {
		l.Warn().Err(err).Msg("Failed to delete cached match data")
	}
	s.live.Delete(matchID)
	s.broadcaster.BroadcastMatchEvent(matchID, EventMatchOver, map[string]any{
		"winner": winner,
		"scores": scores,
	})
	l.Info().Str("winner", winner.String()).Msg("Match finished")
}

// Winner returns the seat with the highest final score, or ColorNone on a
// tie for first, together with every seat's score.
func Winner(m *underdark.Match) (underdark.Color, map[underdark.Color]int) {
	scores := make(map[underdark.Color]int, len(m.Players))
	best, bestScore, tied := underdark.ColorNone, -1, false
	for _, p := range m.Players {
		score := m.FinalScore(p)
		scores[p.Color] = score
		switch {
		case score > bestScore:
			best, bestScore, tied = p.Color, score, false
		case score == bestScore:
			tied = true
		}
	}
	if tied {
		return underdark.ColorNone, scores
	}
	return best, scores
}
