// internal/history/store.go
//
// Persistent record of rounds and players.
// Rounds are owned either by a player (user_id) or by an anonymous cookie
// (anonymous_id); ClaimAnonRounds moves the latter to an account after login.

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrUserNotFound is returned by the user lookups.
var ErrUserNotFound = errors.New("user not found")

// Store wraps the SQLite handle.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the handle for packages sharing the same database (daily results).
func (s *Store) DB() *sql.DB { return s.db }

// Round is one row of the rounds table.
type Round struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	AnonymousID string    `json:"-"`
	Difficulty  string    `json:"difficulty"`
	Secret      int       `json:"secret,omitempty"` // only stored once the round is over
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	Unranked    bool      `json:"unranked,omitempty"` // fixed secret; never counted
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
}

// User is one row of the users table.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	Wins         int       `json:"wins"`
	Streak       int       `json:"streak"`
}

// ------------------------------- rounds ------------------------------------

// InsertRound writes a new round row. Empty owner ids are stored as NULL.
func (s *Store) InsertRound(ctx context.Context, r Round) error {
	status := r.Status
	if status == "" {
		status = "playing"
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO rounds (id, user_id, anonymous_id, difficulty, secret, status, attempts, ranked, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullStr(r.UserID), nullStr(r.AnonymousID), r.Difficulty, nullInt(r.Secret), status,
		r.Attempts, !r.Unranked, formatTime(r.StartedAt), nullTime(r.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert round %s: %w", r.ID, err)
	}
	return nil
}

// RecordGuess bumps the attempt counter of an in-progress round.
func (s *Store) RecordGuess(ctx context.Context, id string, attempts int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE rounds SET attempts=? WHERE id=?`, attempts, id)
	return err
}

// FinishRound marks a round won/lost, reveals its secret and, for ranked
// player-owned rounds, updates the player's counters in the same transaction.
func (s *Store) FinishRound(ctx context.Context, id, status string, attempts, secret int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE rounds SET status=?, attempts=?, secret=?, finished_at=? WHERE id=?`,
		status, attempts, secret, formatTime(time.Now()), id); err != nil {
		return fmt.Errorf("finish round %s: %w", id, err)
	}

	var (
		userID sql.NullString
		ranked bool
	)
	if err := tx.QueryRowContext(ctx, `SELECT user_id, ranked FROM rounds WHERE id=?`, id).Scan(&userID, &ranked); err != nil {
		return fmt.Errorf("load round owner: %w", err)
	}
	if userID.Valid && ranked {
		if err := bumpStats(ctx, tx, userID.String, status == "won"); err != nil {
			return fmt.Errorf("bump stats: %w", err)
		}
	}
	return tx.Commit()
}

// bumpStats increments games played; updates wins and streak based on result.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

const roundColumns = `id, COALESCE(user_id,''), COALESCE(anonymous_id,''), difficulty, COALESCE(secret,0),
               status, attempts, ranked, started_at, COALESCE(finished_at,'')`

// RoundByID loads a single round; sql.ErrNoRows when unknown.
func (s *Store) RoundByID(ctx context.Context, id string) (Round, error) {
	return scanRound(s.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id=?`, id))
}

// BestRound returns the ranked won round with the fewest attempts for a difficulty.
func (s *Store) BestRound(ctx context.Context, difficulty string) (Round, bool, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+roundColumns+`
        FROM rounds
        WHERE difficulty=? AND status='won' AND ranked=1
        ORDER BY attempts ASC, finished_at ASC
        LIMIT 1`, difficulty)
	r, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Round{}, false, nil
	}
	if err != nil {
		return Round{}, false, err
	}
	return r, true, nil
}

// RecentRounds lists a player's latest rounds, newest first.
func (s *Store) RecentRounds(ctx context.Context, userID string, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+roundColumns+`
        FROM rounds
        WHERE user_id=?
        ORDER BY started_at DESC
        LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Round, 0, limit)
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnonRounds transfers anonymous rounds to a player account.
func (s *Store) ClaimAnonRounds(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	return err
}

// -------------------------------- users ------------------------------------

// CreateUser inserts a player row. Username uniqueness is case-insensitive.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, formatTime(u.CreatedAt))
	return err
}

// UsernameTaken reports whether a player already uses username (any case).
func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE username=?`, username).Scan(&n)
	return n > 0, err
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, created_at, games_played, wins, streak
        FROM users WHERE username=?`, username))
}

func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, created_at, games_played, wins, streak
        FROM users WHERE id=?`, id))
}

// ------------------------------- scanning ----------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(sc scanner) (Round, error) {
	var r Round
	var started, finished string
	var ranked bool
	if err := sc.Scan(&r.ID, &r.UserID, &r.AnonymousID, &r.Difficulty, &r.Secret,
		&r.Status, &r.Attempts, &ranked, &started, &finished); err != nil {
		return Round{}, err
	}
	r.Unranked = !ranked
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	return r, nil
}

func scanUser(sc scanner) (*User, error) {
	var u User
	var created string
	err := sc.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.GamesPlayed, &u.Wins, &u.Streak)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}
