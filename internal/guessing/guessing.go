// internal/guessing/guessing.go
//
// Interactive number-guessing command.
// Flow per round: difficulty menu → guesses with warmer/colder and
// too low/high hints → win/lose banner → replay prompt.
// Finished rounds are handed to a Recorder when one is configured.

package guessing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/desktools/internal/console"
	"github.com/robalobadob/desktools/internal/game"
	"github.com/robalobadob/desktools/internal/history"
)

// Recorder persists finished rounds. *history.Store satisfies it.
type Recorder interface {
	InsertRound(ctx context.Context, r history.Round) error
	BestRound(ctx context.Context, difficulty string) (history.Round, bool, error)
}

// Command runs rounds until the player declines a replay or input ends.
type Command struct {
	p        *console.Prompter
	rec      Recorder // may be nil
	newRound func(game.Difficulty) (*game.Round, error)
}

// New builds the command. rec may be nil to skip history.
func New(p *console.Prompter, rec Recorder) *Command {
	return &Command{
		p:   p,
		rec: rec,
		newRound: func(d game.Difficulty) (*game.Round, error) {
			return game.New(d, 0)
		},
	}
}

// Run plays rounds until the player stops. Closed input is a normal exit.
func (c *Command) Run(ctx context.Context) error {
	c.p.Println("========== 🎲 ADVANCED NUMBER GUESSING GAME 🎲 ==========")
	for {
		if err := c.play(ctx); err != nil {
			if errors.Is(err, console.ErrClosed) {
				c.p.Println("\nThanks for playing!")
				return nil
			}
			return err
		}
		again, err := c.p.YesNo("\nPlay again? (y/n): ")
		if err != nil && !errors.Is(err, console.ErrClosed) {
			return err
		}
		if !again {
			c.p.Println("Thanks for playing!")
			return nil
		}
	}
}

func (c *Command) chooseDifficulty() (game.Difficulty, error) {
	c.p.Println("\nChoose Difficulty")
	for _, d := range game.Difficulties() {
		c.p.Printf("%s. %-7s(%d - %d, %d attempts)\n", d.Choice, d.Label, d.Min, d.Max, d.AttemptsMax)
	}
	choice, err := c.p.Choice("Select (1/2/3): ", "1", "2", "3")
	if err != nil {
		return game.Difficulty{}, err
	}
	return game.ParseDifficulty(choice)
}

func (c *Command) play(ctx context.Context) error {
	d, err := c.chooseDifficulty()
	if err != nil {
		return err
	}
	r, err := c.newRound(d)
	if err != nil {
		return err
	}
	started := time.Now()
	c.p.Println("\nGame Started!")

	for !r.Finished() {
		guess, err := c.p.Int(d.Min, d.Max)
		if err != nil {
			return err
		}
		ev, state, err := r.ApplyGuess(guess)
		if err != nil {
			// Int bounds the input, so only ErrRoundOver-style bugs land here.
			return err
		}
		c.report(r, ev, state)
	}

	c.record(ctx, r, started)
	return nil
}

func (c *Command) report(r *game.Round, ev game.Evaluation, state game.State) {
	if ev.Exact {
		c.p.Printf("\n🎉 Correct! The answer is %d\n", r.Secret)
		c.p.Printf("🏆 Attempts used: %d/%d\n", r.AttemptsUsed, r.Difficulty.AttemptsMax)
		return
	}
	switch ev.Temperature {
	case game.Warmer:
		c.p.Println("🔥 Warmer!")
	case game.Colder:
		c.p.Println("❄️ Colder!")
	}
	if ev.Direction == game.TooLow {
		c.p.Println("Try bigger!")
	} else {
		c.p.Println("Try smaller!")
	}
	c.p.Printf("Attempts left: %d\n", r.AttemptsLeft())
	if state == game.StateLost {
		c.p.Printf("\n💀 Game Over! The correct answer was %d\n", r.Secret)
	}
}

func (c *Command) record(ctx context.Context, r *game.Round, started time.Time) {
	if c.rec == nil {
		return
	}
	row := history.Round{
		ID:          r.ID,
		AnonymousID: "cli",
		Difficulty:  r.Difficulty.Key,
		Secret:      r.Secret,
		Status:      string(r.State),
		Attempts:    r.AttemptsUsed,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if err := c.rec.InsertRound(ctx, row); err != nil {
		log.Warn().Err(err).Str("round", r.ID).Msg("record round")
		return
	}
	best, ok, err := c.rec.BestRound(ctx, r.Difficulty.Key)
	if err != nil {
		log.Warn().Err(err).Msg("load best round")
		return
	}
	if ok {
		c.p.Printf("📈 Best %s result so far: %d attempt(s)\n", r.Difficulty.Label, best.Attempts)
	}
}
