package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/freeeve/underdark/pkg/underdark"
)

type testEnv struct {
	svc      *MatchService
	matches  *mockMatchRepo
	commands *mockCommandRepo
	cache    *mockCache
	events   *mockBroadcaster
}

func newTestEnv() *testEnv {
	env := &testEnv{
		matches:  newMockMatchRepo(),
		commands: newMockCommandRepo(),
		cache:    newMockCache(),
		events:   &mockBroadcaster{},
	}
	env.svc = NewMatchService(env.matches, env.commands, env.cache, env.events)
	return env
}

func startNode(s underdark.SiteID, i int) underdark.NodeID {
	return underdark.DemoBoard().Sites[s].Nodes[i]
}

func createTwoSeat(t *testing.T, env *testEnv) string {
	t.Helper()
	rec, err := env.svc.CreateMatch(context.Background(), 7, []underdark.Color{underdark.Red, underdark.Blue})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	return rec.ID
}

func submit(t *testing.T, env *testEnv, matchID string, cmd underdark.Command) *Outcome {
	t.Helper()
	out, err := env.svc.Submit(context.Background(), matchID, cmd)
	if err != nil {
		t.Fatalf("Submit(%s): %v", cmd, err)
	}
	return out
}

func finishSetup(t *testing.T, env *testEnv, matchID string) {
	t.Helper()
	submit(t, env, matchID, underdark.ClickNode(underdark.Red, startNode(underdark.SiteBlingdenstone, 0)))
	submit(t, env, matchID, underdark.ClickNode(underdark.Blue, startNode(underdark.SiteChedNasad, 0)))
}

func TestCreateMatch(t *testing.T) {
	env := newTestEnv()
	rec, err := env.svc.CreateMatch(context.Background(), 99, []underdark.Color{underdark.Red, underdark.Blue, underdark.Green})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Errorf("match ID %q is not a UUID: %v", rec.ID, err)
	}
	if rec.Seed != 99 || len(rec.Seats) != 3 || rec.Seats[2] != "green" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if env.cache.snapshots[rec.ID] == nil {
		t.Error("initial snapshot should be cached")
	}
	if env.events.count(EventMatchCreated) != 1 {
		t.Errorf("expected 1 %s event, got %d", EventMatchCreated, env.events.count(EventMatchCreated))
	}
}

func TestCreateMatch_InvalidSeats(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.CreateMatch(context.Background(), 1, []underdark.Color{underdark.Red, underdark.Red})
	if !errors.Is(err, underdark.ErrInvalidSeat) {
		t.Fatalf("expected ErrInvalidSeat, got %v", err)
	}
	if len(env.matches.matches) != 0 {
		t.Error("no record should be stored for an invalid match")
	}
}

func TestSubmit_RecordsOutcomes(t *testing.T) {
	env := newTestEnv()
	id := createTwoSeat(t, env)

	out := submit(t, env, id, underdark.ClickNode(underdark.Red, startNode(underdark.SiteBlingdenstone, 0)))
	if out.Seq != 1 || out.Completed != 1 || len(out.Failures) != 0 {
		t.Errorf("deploy outcome: %+v", out)
	}

	out = submit(t, env, id, underdark.ClickNode(underdark.Blue, startNode(underdark.SiteBlingdenstone, 1)))
	if out.Seq != 2 || out.Completed != 0 || len(out.Failures) != 1 || out.Failures[0] != underdark.ReasonCannotDeploy {
		t.Errorf("rejected click outcome: %+v", out)
	}

	if got := len(env.commands.cmds[id]); got != 2 {
		t.Errorf("recorded %d commands, want 2", got)
	}
	var first underdark.Command
	if err := json.Unmarshal(env.commands.cmds[id][0].Payload, &first); err != nil {
		t.Fatalf("decode recorded command: %v", err)
	}
	if first.Seq != 1 || first.Color != underdark.Red || first.Kind != underdark.CmdClick {
		t.Errorf("recorded command = %+v", first)
	}

	if env.events.count(EventActionCompleted) != 1 || env.events.count(EventActionFailed) != 1 {
		t.Errorf("completed=%d failed=%d events", env.events.count(EventActionCompleted), env.events.count(EventActionFailed))
	}
	if env.events.count(EventCommandApplied) != 2 {
		t.Errorf("expected 2 %s events, got %d", EventCommandApplied, env.events.count(EventCommandApplied))
	}
}

func TestSubmit_MalformedNotRecorded(t *testing.T) {
	env := newTestEnv()
	id := createTwoSeat(t, env)

	tests := []struct {
		name string
		cmd  underdark.Command
		want error
	}{
		{"out of turn", underdark.ClickNode(underdark.Blue, 0), underdark.ErrOutOfTurn},
		{"unknown node", underdark.ClickNode(underdark.Red, 500), underdark.ErrUnknownNode},
		{"wrong phase", underdark.NewCommand(underdark.CmdEndTurn, underdark.Red), underdark.ErrWrongPhase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Submit(context.Background(), id, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if got := len(env.commands.cmds[id]); got != 0 {
		t.Errorf("recorded %d malformed commands", got)
	}
}

func TestSubmit_UnknownMatch(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.Submit(context.Background(), uuid.NewString(), underdark.NewCommand(underdark.CmdCancel, underdark.Red))
	if !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

// current returns the in-memory match, rebuilding it if needed. Tests call
// it only while no command is being submitted.
func current(t *testing.T, env *testEnv, matchID string) *underdark.Match {
	t.Helper()
	lm, _, err := env.svc.load(context.Background(), matchID)
	if err != nil {
		t.Fatalf("load %s: %v", matchID, err)
	}
	return lm.match
}

func TestRebuildFromLog(t *testing.T) {
	env := newTestEnv()
	id := createTwoSeat(t, env)
	finishSetup(t, env, id)

	color, hand, err := env.svc.ActiveHand(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if color != underdark.Red || len(hand) != underdark.DefaultHandSize {
		t.Fatalf("active hand = %s %v", color, hand)
	}
	submit(t, env, id, underdark.NewCommand(underdark.CmdPlayCard, underdark.Red).WithCard(hand[0]))
	submit(t, env, id, underdark.NewCommand(underdark.CmdEndTurn, underdark.Red))

	want, _ := json.Marshal(current(t, env, id).Snapshot())

	// A fresh service over the same log, with an empty cache, has to replay.
	fresh := NewMatchService(env.matches, env.commands, newMockCache(), nil)
	got, err := fresh.Snapshot(context.Background(), id)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("rebuilt match differs:\n got %s\nwant %s", got, want)
	}

	replayed, err := env.svc.Replay(context.Background(), id)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if replayed == current(t, env, id) {
		t.Error("Replay should build an independent match")
	}
	got, _ = json.Marshal(replayed.Snapshot())
	if string(got) != string(want) {
		t.Error("replayed match differs from the live one")
	}
}

func TestSubmit_AppendFailureDropsLiveState(t *testing.T) {
	env := newTestEnv()
	id := createTwoSeat(t, env)

	env.commands.appendErr = errors.New("db down")
	_, err := env.svc.Submit(context.Background(), id, underdark.ClickNode(underdark.Red, startNode(underdark.SiteBlingdenstone, 0)))
	if err == nil {
		t.Fatal("expected append error")
	}
	env.commands.appendErr = nil

	m := current(t, env, id)
	if m.Board.TroopCount(underdark.Red) != 0 || m.ActivePlayer().Color != underdark.Red {
		t.Error("unrecorded command should not survive in memory")
	}
}

func TestSubmit_MatchOver(t *testing.T) {
	env := newTestEnv()
	env.svc.newMarket = func() []*underdark.Card { return nil }
	id := createTwoSeat(t, env)
	finishSetup(t, env, id)

	out := submit(t, env, id, underdark.NewCommand(underdark.CmdEndTurn, underdark.Red))
	if !out.Finished {
		t.Fatalf("outcome = %+v, want finished", out)
	}
	if env.matches.matches[id].Status != "finished" {
		t.Errorf("status = %s, want finished", env.matches.matches[id].Status)
	}
	if env.cache.snapshots[id] != nil {
		t.Error("cached snapshot should be deleted")
	}
	if env.events.count(EventMatchOver) != 1 {
		t.Errorf("expected 1 %s event", EventMatchOver)
	}

	_, err := env.svc.Submit(context.Background(), id, underdark.NewCommand(underdark.CmdCancel, underdark.Blue))
	if !errors.Is(err, ErrMatchFinished) {
		t.Errorf("expected ErrMatchFinished, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	env := newTestEnv()
	id := createTwoSeat(t, env)
	finishSetup(t, env, id)

	cached, err := env.svc.Snapshot(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	sets := env.cache.sets

	delete(env.cache.snapshots, id)
	rebuilt, err := env.svc.Snapshot(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if string(rebuilt) != string(cached) {
		t.Error("cache miss should produce the same snapshot")
	}
	if env.cache.sets != sets+1 {
		t.Error("cache miss should refill the cache")
	}

	var snap struct {
		Phase  string `json:"phase"`
		Active string `json:"active"`
	}
	if err := json.Unmarshal(rebuilt, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Phase != "playing" || snap.Active != "red" {
		t.Errorf("phase = %q active = %q, want playing and red", snap.Phase, snap.Active)
	}
}

func TestSnapshot_CacheMissDuringPlay(t *testing.T) {
	env := newTestEnv()
	env.cache.alwaysMiss = true
	id := createTwoSeat(t, env)
	finishSetup(t, env, id)

	const turns = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < turns; i++ {
			if _, err := env.svc.Snapshot(context.Background(), id); err != nil {
				t.Errorf("Snapshot: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		seats := []underdark.Color{underdark.Red, underdark.Blue}
		for i := 0; i < turns; i++ {
			if _, err := env.svc.Submit(context.Background(), id, underdark.NewCommand(underdark.CmdEndTurn, seats[i%2])); err != nil {
				t.Errorf("EndTurn %d: %v", i, err)
				return
			}
		}
	}()
	wg.Wait()

	if got := current(t, env, id).Turn(); got != turns {
		t.Errorf("turn = %d, want %d", got, turns)
	}
}

func TestSubmit_SerializedPerMatch(t *testing.T) {
	env := newTestEnv()
	id := createTwoSeat(t, env)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.svc.Submit(context.Background(), id, underdark.NewCommand(underdark.CmdCancel, underdark.Red))
		}()
	}
	wg.Wait()

	cmds := env.commands.cmds[id]
	if len(cmds) != n {
		t.Fatalf("recorded %d commands, want %d", len(cmds), n)
	}
	for i, c := range cmds {
		if c.Seq != i+1 {
			t.Fatalf("command %d has seq %d", i, c.Seq)
		}
	}
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name    string
		vp      []int
		want    underdark.Color
		wantRed int
	}{
		{"red leads", []int{5, 3}, underdark.Red, 5},
		{"blue leads", []int{1, 4}, underdark.Blue, 1},
		{"tie", []int{2, 2}, underdark.ColorNone, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			red, blue := underdark.NewPlayer(underdark.Red, nil), underdark.NewPlayer(underdark.Blue, nil)
			red.VictoryPoints, blue.VictoryPoints = tt.vp[0], tt.vp[1]
			m, err := underdark.NewMatch(underdark.DemoBoard(), []*underdark.Player{red, blue}, underdark.MatchOptions{})
			if err != nil {
				t.Fatal(err)
			}
			got, scores := Winner(m)
			if got != tt.want || scores[underdark.Red] != tt.wantRed {
				t.Errorf("Winner = %q %v, want %q", got, scores, tt.want)
			}
		})
	}
}
