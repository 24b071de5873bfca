package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/robalobadob/desktools/assets"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db, assets.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := Migrate(s.DB(), assets.Migrations()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("recorded migrations = %d, want 3", n)
	}
}

func TestMigrateRunsSelfManagedScriptsOutsideTx(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "self.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rebuild := `PRAGMA foreign_keys=OFF;
BEGIN TRANSACTION;
CREATE TABLE plain_new (id INTEGER PRIMARY KEY, note TEXT);
INSERT INTO plain_new (id) SELECT id FROM plain;
DROP TABLE plain;
ALTER TABLE plain_new RENAME TO plain;
COMMIT;
PRAGMA foreign_keys=ON;`
	fsys := fstest.MapFS{
		"001_plain.sql":   {Data: []byte(`CREATE TABLE plain (id INTEGER PRIMARY KEY);`)},
		"002_rebuild.sql": {Data: []byte(rebuild)},
	}
	for i := 0; i < 2; i++ {
		if err := Migrate(db, fsys); err != nil {
			t.Fatalf("migrate #%d: %v", i+1, err)
		}
	}
	if _, err := db.Exec(`INSERT INTO plain (id, note) VALUES (1, 'x')`); err != nil {
		t.Fatalf("rebuilt table: %v", err)
	}
	var n int
	_ = db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n)
	if n != 2 {
		t.Fatalf("recorded migrations = %d, want 2", n)
	}
}

func TestBestRound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if _, ok, err := s.BestRound(ctx, "easy"); err != nil || ok {
		t.Fatalf("empty best = %v, %v", ok, err)
	}
	rows := []Round{
		{ID: "a", Difficulty: "easy", Secret: 10, Status: "won", Attempts: 5, StartedAt: now, FinishedAt: now},
		{ID: "b", Difficulty: "easy", Secret: 20, Status: "won", Attempts: 3, StartedAt: now, FinishedAt: now},
		{ID: "c", Difficulty: "easy", Secret: 30, Status: "lost", Attempts: 1, StartedAt: now, FinishedAt: now},
		{ID: "d", Difficulty: "hard", Secret: 40, Status: "won", Attempts: 1, StartedAt: now, FinishedAt: now},
	}
	for _, r := range rows {
		if err := s.InsertRound(ctx, r); err != nil {
			t.Fatalf("insert %s: %v", r.ID, err)
		}
	}
	best, ok, err := s.BestRound(ctx, "easy")
	if err != nil || !ok {
		t.Fatalf("best = %v, %v", ok, err)
	}
	if best.ID != "b" || best.Attempts != 3 || best.Secret != 20 {
		t.Fatalf("best = %+v", best)
	}
}

func TestUnrankedRoundsAreNotCounted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.CreateUser(ctx, User{ID: "u1", Username: "carol", PasswordHash: "x", CreatedAt: time.Now()})

	_ = s.InsertRound(ctx, Round{ID: "ranked", UserID: "u1", Difficulty: "hard", StartedAt: time.Now()})
	_ = s.InsertRound(ctx, Round{ID: "fixed", UserID: "u1", Difficulty: "hard", Unranked: true, StartedAt: time.Now()})
	if err := s.FinishRound(ctx, "ranked", "won", 4, 120); err != nil {
		t.Fatalf("finish ranked: %v", err)
	}
	if err := s.FinishRound(ctx, "fixed", "won", 1, 7); err != nil {
		t.Fatalf("finish fixed: %v", err)
	}

	u, _ := s.UserByID(ctx, "u1")
	if u.GamesPlayed != 1 || u.Wins != 1 || u.Streak != 1 {
		t.Fatalf("stats = %+v", u)
	}
	best, ok, err := s.BestRound(ctx, "hard")
	if err != nil || !ok || best.ID != "ranked" {
		t.Fatalf("best = %+v, %v, %v", best, ok, err)
	}

	fixed, err := s.RoundByID(ctx, "fixed")
	if err != nil || !fixed.Unranked || fixed.Status != "won" || fixed.Secret != 7 {
		t.Fatalf("fixed = %+v, %v", fixed, err)
	}
	if _, err := s.RoundByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestFinishRoundBumpsPlayerStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := User{ID: "u1", Username: "Alice", PasswordHash: "x", CreatedAt: time.Now()}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if taken, _ := s.UsernameTaken(ctx, "alice"); !taken {
		t.Fatal("username check should be case-insensitive")
	}

	for i, status := range []string{"won", "won", "lost", "won"} {
		id := string(rune('a' + i))
		if err := s.InsertRound(ctx, Round{ID: id, UserID: "u1", Difficulty: "medium", StartedAt: time.Now()}); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := s.RecordGuess(ctx, id, 2); err != nil {
			t.Fatalf("record guess: %v", err)
		}
		if err := s.FinishRound(ctx, id, status, 3, 42); err != nil {
			t.Fatalf("finish: %v", err)
		}
	}

	got, err := s.UserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if got.GamesPlayed != 4 || got.Wins != 3 || got.Streak != 1 {
		t.Fatalf("stats = %+v", got)
	}

	recent, err := s.RecentRounds(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 4 || recent[0].Secret != 42 || recent[0].Attempts != 3 {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestClaimAnonRounds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.CreateUser(ctx, User{ID: "u1", Username: "bob", PasswordHash: "x", CreatedAt: time.Now()})
	_ = s.InsertRound(ctx, Round{ID: "r1", AnonymousID: "anon", Difficulty: "easy", StartedAt: time.Now()})

	if err := s.ClaimAnonRounds(ctx, "anon", "u1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	recent, _ := s.RecentRounds(ctx, "u1", 0)
	if len(recent) != 1 || recent[0].ID != "r1" {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestUserNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.UserByUsername(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
