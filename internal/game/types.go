// internal/game/types.go
//
// Core type definitions for the number-guessing engine.
// Defines:
//   - Difficulty: fixed (range, attempt budget) presets.
//   - Temperature / Direction: per-guess hints.
//   - Evaluation: result of scoring one guess.
//   - Round: state for a single in-progress or finished round.

package game

// Difficulty is an immutable preset selected once per round.
type Difficulty struct {
	Key         string `json:"key"`         // "easy" | "medium" | "hard"
	Choice      string `json:"choice"`      // menu number ("1", "2", "3")
	Label       string `json:"label"`       // display name
	Min         int    `json:"min"`         // inclusive lower bound
	Max         int    `json:"max"`         // inclusive upper bound
	AttemptsMax int    `json:"attemptsMax"` // guesses allowed before the round is lost
}

var (
	Easy   = Difficulty{Key: "easy", Choice: "1", Label: "Easy", Min: 1, Max: 50, AttemptsMax: 10}
	Medium = Difficulty{Key: "medium", Choice: "2", Label: "Medium", Min: 1, Max: 100, AttemptsMax: 7}
	Hard   = Difficulty{Key: "hard", Choice: "3", Label: "Hard", Min: 1, Max: 200, AttemptsMax: 5}
)

// Temperature tells whether a guess landed closer to the secret than the previous one.
// The zero value means no hint (first guess of a round, or an exact match).
type Temperature string

const (
	TemperatureNone Temperature = ""
	Warmer          Temperature = "warmer"
	Colder          Temperature = "colder"
)

// Direction tells on which side of the secret a guess landed.
// The zero value is used on an exact match.
type Direction string

const (
	DirectionNone Direction = ""
	TooLow        Direction = "too_low"
	TooHigh       Direction = "too_high"
)

// Evaluation is the outcome of comparing one guess with the secret.
type Evaluation struct {
	Guess       int         `json:"guess"`
	Exact       bool        `json:"exact"`
	Difference  int         `json:"difference"`
	Temperature Temperature `json:"temperature,omitempty"`
	Direction   Direction   `json:"direction,omitempty"`
}

// State is a coarse round lifecycle marker.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// Round holds the state of a single play-through.
type Round struct {
	ID           string     // Unique round identifier (uuid).
	Difficulty   Difficulty // Preset chosen at start.
	Secret       int        // The number to find, within [Difficulty.Min, Difficulty.Max].
	AttemptsUsed int        // Accepted guesses so far.
	Guesses      []int      // Accepted guesses, in order.
	State        State      // playing → won/lost.

	prevDiff int  // |Secret - last guess|
	hasPrev  bool // false until the first non-matching guess
}
