// internal/game/engine.go
//
// Core engine for a single number-guessing round.
// Responsibilities:
//   - Resolve difficulty presets by menu number or name.
//   - Create rounds with a uniformly random secret in the preset's range.
//   - Evaluate guesses (exact match, distance, warmer/colder, too low/high).
//   - Track state transitions: playing → won/lost.
//
// Evaluate is pure; Round.ApplyGuess owns attempt counting and termination.
package game

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	ErrRoundOver         = errors.New("round finished")
	ErrOutOfRange        = errors.New("guess out of range")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// Difficulties lists the presets in menu order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// ParseDifficulty accepts a menu number ("1".."3") or a preset name, case-insensitive.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	d, ok := lo.Find(Difficulties(), func(d Difficulty) bool {
		return d.Choice == s || d.Key == s
	})
	if !ok {
		return Difficulty{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
	return d, nil
}

// Contains reports whether n lies in the preset's inclusive range.
func (d Difficulty) Contains(n int) bool { return n >= d.Min && n <= d.Max }

// New constructs a round for d.
// If withSecret is zero, a random secret is drawn from [d.Min, d.Max].
func New(d Difficulty, withSecret int) (*Round, error) {
	secret := withSecret
	if secret == 0 {
		secret = RandomSecret(d)
	}
	if !d.Contains(secret) {
		return nil, fmt.Errorf("secret %d: %w", secret, ErrOutOfRange)
	}
	return &Round{
		ID:         uuid.NewString(),
		Difficulty: d,
		Secret:     secret,
		Guesses:    []int{},
		State:      StatePlaying,
	}, nil
}

// RandomSecret draws uniformly from [d.Min, d.Max] using crypto/rand.
func RandomSecret(d Difficulty) int {
	span := int64(d.Max - d.Min + 1)
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return d.Min
	}
	return d.Min + int(n.Int64())
}

// Evaluate scores guess against secret. prevDiff is only consulted when hasPrev is set.
// The returned Difference is the previous difference for the next call.
func Evaluate(secret, guess, prevDiff int, hasPrev bool) Evaluation {
	ev := Evaluation{Guess: guess, Difference: abs(secret - guess)}
	if guess == secret {
		ev.Exact = true
		return ev
	}
	if hasPrev {
		if ev.Difference < prevDiff {
			ev.Temperature = Warmer
		} else {
			ev.Temperature = Colder
		}
	}
	if guess < secret {
		ev.Direction = TooLow
	} else {
		ev.Direction = TooHigh
	}
	return ev
}

// ApplyGuess validates and scores a guess, mutating the round.
//
// Validation rules:
//   - Round must still be playing.
//   - Guess must lie in the difficulty range (rejected guesses cost no attempt).
//
// State transitions:
//   - Exact match → won.
//   - Otherwise, when AttemptsUsed reaches AttemptsMax → lost.
func (r *Round) ApplyGuess(guess int) (Evaluation, State, error) {
	if r.State != StatePlaying {
		return Evaluation{}, r.State, ErrRoundOver
	}
	if !r.Difficulty.Contains(guess) {
		return Evaluation{}, r.State, fmt.Errorf("%w: want %d-%d", ErrOutOfRange, r.Difficulty.Min, r.Difficulty.Max)
	}

	ev := Evaluate(r.Secret, guess, r.prevDiff, r.hasPrev)
	r.AttemptsUsed++
	r.Guesses = append(r.Guesses, guess)
	r.prevDiff, r.hasPrev = ev.Difference, true

	switch {
	case ev.Exact:
		r.State = StateWon
	case r.AttemptsUsed >= r.Difficulty.AttemptsMax:
		r.State = StateLost
	}
	return ev, r.State, nil
}

// AttemptsLeft is the remaining guess budget.
func (r *Round) AttemptsLeft() int { return r.Difficulty.AttemptsMax - r.AttemptsUsed }

// Finished reports whether the round reached a terminal state.
func (r *Round) Finished() bool { return r.State != StatePlaying }

// PreviousDifference returns the distance of the last accepted guess, if any.
func (r *Round) PreviousDifference() (int, bool) { return r.prevDiff, r.hasPrev }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
