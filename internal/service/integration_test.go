//go:build integration

package service

import (
	"context"
	"testing"
	"time"

	"github.com/freeeve/underdark/internal/repository/postgres"
	redisrepo "github.com/freeeve/underdark/internal/repository/redis"
	"github.com/freeeve/underdark/internal/testutil"
	"github.com/freeeve/underdark/pkg/underdark"
)

func setupStores(t *testing.T) (*postgres.MatchRepo, *postgres.CommandRepo, *redisrepo.Client) {
	t.Helper()
	db := testutil.SetupDB(t)
	testutil.CleanupDB(t, db)
	rdb := testutil.SetupRedis(t)
	testutil.CleanupRedis(t, rdb)
	return postgres.NewMatchRepo(db), postgres.NewCommandRepo(db), redisrepo.NewClientFromPool(rdb, time.Minute)
}

func TestIntegration_SubmitAndRebuild(t *testing.T) {
	matches, commands, cache := setupStores(t)
	ctx := context.Background()
	svc := NewMatchService(matches, commands, cache, nil)

	rec, err := svc.CreateMatch(ctx, 11, []underdark.Color{underdark.Red, underdark.Blue})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	board := underdark.DemoBoard()
	deploys := []underdark.Command{
		underdark.NewCommand(underdark.CmdDeploy, underdark.Red).WithNode(board.Sites[underdark.SiteBlingdenstone].Nodes[0]),
		underdark.NewCommand(underdark.CmdDeploy, underdark.Blue).WithNode(board.Sites[underdark.SiteChedNasad].Nodes[0]),
	}
	for _, cmd := range deploys {
		if _, err := svc.Submit(ctx, rec.ID, cmd); err != nil {
			t.Fatalf("submit %s: %v", cmd, err)
		}
	}
	if _, err := svc.Submit(ctx, rec.ID, underdark.NewCommand(underdark.CmdEndTurn, underdark.Red)); err != nil {
		t.Fatalf("end turn: %v", err)
	}

	cached, err := cache.GetSnapshot(ctx, rec.ID)
	if err != nil || cached == nil {
		t.Fatalf("cached snapshot = %v, %v", cached, err)
	}

	fresh := NewMatchService(matches, commands, cache, nil)
	m, err := fresh.Replay(ctx, rec.ID)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if m.Phase() != underdark.Playing || m.ActivePlayer().Color != underdark.Blue || m.Turn() != 1 {
		t.Fatalf("rebuilt match: phase=%s active=%s turn=%d", m.Phase(), m.ActivePlayer().Color, m.Turn())
	}

	seq, _ := commands.NextSeq(ctx, rec.ID)
	if seq != 4 {
		t.Fatalf("next seq = %d, want 4", seq)
	}
}
