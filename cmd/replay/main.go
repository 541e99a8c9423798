package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/underdark/internal/config"
	"github.com/freeeve/underdark/internal/logger"
	"github.com/freeeve/underdark/internal/repository/postgres"
	redisrepo "github.com/freeeve/underdark/internal/repository/redis"
	"github.com/freeeve/underdark/internal/service"
	"github.com/freeeve/underdark/pkg/underdark"
)

// demoStarts are the starting sites the demo match deploys on, one per seat.
var demoStarts = []underdark.SiteID{
	underdark.SiteBlingdenstone,
	underdark.SiteChedNasad,
	underdark.SiteMantolDerith,
}

func main() {
	closeLog := logger.Init()
	defer closeLog()
	cfg := config.Load()

	var (
		matchID string
		seats   string
		turns   int
		seed    int64
		jsonOut bool
	)
	flag.StringVar(&matchID, "match", "", "Match ID to rebuild from its command log")
	flag.StringVar(&seats, "seats", "red,blue", "Seats for a new demo match")
	flag.IntVar(&turns, "turns", 4, "Turns to play in a new demo match")
	flag.Int64Var(&seed, "seed", cfg.MatchSeed, "Seed for a new demo match")
	flag.BoolVar(&jsonOut, "json", false, "Print the full snapshot as JSON")
	flag.Parse()

	ctx := context.Background()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	redisClient, err := redisrepo.NewClient(ctx, cfg.RedisURL, cfg.SnapshotTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	svc := service.NewMatchService(postgres.NewMatchRepo(db), postgres.NewCommandRepo(db), redisClient, nil)

	if matchID == "" {
		colors, err := parseSeats(seats)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid seats")
		}
		matchID, err = playDemo(ctx, svc, seed, colors, turns)
		if err != nil {
			log.Fatal().Err(err).Msg("Demo match failed")
		}
	}

	m, err := svc.Replay(ctx, matchID)
	if err != nil {
		log.Fatal().Err(err).Str("matchId", matchID).Msg("Replay failed")
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m.Snapshot()); err != nil {
			log.Fatal().Err(err).Msg("Encode snapshot")
		}
		return
	}
	printSummary(matchID, m)
}

// parseSeats turns "red,blue" into seat colors.
func parseSeats(s string) ([]underdark.Color, error) {
	var colors []underdark.Color
	for _, part := range strings.Split(s, ",") {
		c := underdark.Color(strings.ToLower(strings.TrimSpace(part)))
		if !c.IsPlayer() {
			return nil, fmt.Errorf("unknown seat %q", part)
		}
		colors = append(colors, c)
	}
	if len(colors) > len(demoStarts) {
		return nil, fmt.Errorf("demo board seats at most %d players", len(demoStarts))
	}
	return colors, nil
}

// playDemo creates a match, deploys every seat on its own starting site and
// then plays each hand out and ends the turn until turns have passed or the
// match is over.
func playDemo(ctx context.Context, svc *service.MatchService, seed int64, seats []underdark.Color, turns int) (string, error) {
	rec, err := svc.CreateMatch(ctx, seed, seats)
	if err != nil {
		return "", err
	}
	board := underdark.DemoBoard()
	for i, c := range seats {
		node := board.Sites[demoStarts[i]].Nodes[0]
		if _, err := svc.Submit(ctx, rec.ID, underdark.NewCommand(underdark.CmdDeploy, c).WithNode(node)); err != nil {
			return "", err
		}
	}

	for i := 0; i < turns; i++ {
		color, hand, err := svc.ActiveHand(ctx, rec.ID)
		if err != nil {
			return "", err
		}
		for _, id := range hand {
			if _, err := svc.Submit(ctx, rec.ID, underdark.NewCommand(underdark.CmdPlayCard, color).WithCard(id)); err != nil {
				return "", err
			}
		}
		out, err := svc.Submit(ctx, rec.ID, underdark.NewCommand(underdark.CmdEndTurn, color))
		if err != nil {
			return "", err
		}
		if out.Finished {
			break
		}
	}
	log.Info().Str("matchId", rec.ID).Int("turns", turns).Msg("Demo match played")
	return rec.ID, nil
}

func printSummary(matchID string, m *underdark.Match) {
	snap := m.Snapshot()
	fmt.Printf("match %s  phase=%s  turn=%d  active=%s  over=%v\n", matchID, snap.Phase, snap.Turn, snap.Active, snap.Over)

	players := append([]*underdark.Player(nil), m.Players...)
	sort.SliceStable(players, func(i, j int) bool {
		return snap.Scores[players[i].Color] > snap.Scores[players[j].Color]
	})
	for _, p := range players {
		fmt.Printf("  %-7s score=%-3d vp=%-3d troops=%-2d trophies=%d\n",
			p.Color, snap.Scores[p.Color], p.VictoryPoints, m.Board.TroopCount(p.Color), p.TrophyHall)
	}
	for _, s := range m.Board.Sites {
		if s.Owner == underdark.ColorNone {
			continue
		}
		total := ""
		if s.HasTotalControl {
			total = " (total control)"
		}
		fmt.Printf("  %-15s held by %s%s\n", s.Name, s.Owner, total)
	}
}
