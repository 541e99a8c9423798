//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/freeeve/underdark/internal/testutil"
)

var testDB *sql.DB

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

// --- MatchRepo Tests ---

func TestMatchCreateAndFind(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)
	ctx := context.Background()
	id := uuid.NewString()

	m, err := repo.Create(ctx, id, 42, []string{"red", "blue"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID != id || m.Seed != 42 || m.Status != "active" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if len(m.Seats) != 2 || m.Seats[0] != "red" || m.Seats[1] != "blue" {
		t.Fatalf("seats = %v", m.Seats)
	}

	found, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.Seed != 42 || found.FinishedAt != nil {
		t.Fatalf("unexpected found match: %+v", found)
	}
}

func TestMatchFindMissing(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)

	m, err := repo.FindByID(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil for missing match")
	}
}

func TestMatchSetFinished(t *testing.T) {
	setup(t)
	repo := NewMatchRepo(testDB)
	ctx := context.Background()
	id := uuid.NewString()
	repo.Create(ctx, id, 1, []string{"red", "blue"})

	if err := repo.SetFinished(ctx, id, "red"); err != nil {
		t.Fatalf("set finished: %v", err)
	}
	m, _ := repo.FindByID(ctx, id)
	if m.Status != "finished" || m.Winner != "red" || m.FinishedAt == nil {
		t.Fatalf("unexpected finished match: %+v", m)
	}
}

// --- CommandRepo Tests ---

func TestCommandAppendAndList(t *testing.T) {
	setup(t)
	repo := NewCommandRepo(testDB)
	ctx := context.Background()
	id := testutil.InsertMatch(t, testDB, uuid.NewString())

	seq, err := repo.NextSeq(ctx, id)
	if err != nil || seq != 1 {
		t.Fatalf("next seq on empty log = %d, %v", seq, err)
	}

	payloads := []string{
		`{"seq":1,"kind":"click","color":"red","node_id":5,"site_id":-1}`,
		`{"seq":2,"kind":"click","color":"blue","node_id":7,"site_id":-1}`,
	}
	for i, p := range payloads {
		if err := repo.Append(ctx, id, i+1, json.RawMessage(p)); err != nil {
			t.Fatalf("append %d: %v", i+1, err)
		}
	}

	cmds, err := repo.ListByMatch(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cmds) != 2 || cmds[0].Seq != 1 || cmds[1].Seq != 2 {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
	var decoded map[string]any
	if err := json.Unmarshal(cmds[1].Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["color"] != "blue" {
		t.Fatalf("payload round-trip failed: %s", cmds[1].Payload)
	}

	seq, _ = repo.NextSeq(ctx, id)
	if seq != 3 {
		t.Fatalf("next seq = %d, want 3", seq)
	}
}

func TestCommandAppendDuplicateSeq(t *testing.T) {
	setup(t)
	repo := NewCommandRepo(testDB)
	ctx := context.Background()
	id := testutil.InsertMatch(t, testDB, uuid.NewString())

	if err := repo.Append(ctx, id, 1, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("append: %v", err)
	}
	err := repo.Append(ctx, id, 1, json.RawMessage(`{}`))
	if !errors.Is(err, ErrDuplicateSeq) {
		t.Fatalf("expected ErrDuplicateSeq, got %v", err)
	}
}

func TestCommandsCascadeWithMatch(t *testing.T) {
	setup(t)
	repo := NewCommandRepo(testDB)
	ctx := context.Background()
	id := testutil.InsertMatch(t, testDB, uuid.NewString())
	repo.Append(ctx, id, 1, json.RawMessage(`{}`))

	if _, err := testDB.Exec(`DELETE FROM matches WHERE id = $1`, id); err != nil {
		t.Fatalf("delete match: %v", err)
	}
	cmds, err := repo.ListByMatch(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected commands to cascade, got %d", len(cmds))
	}
}
