package game

import (
	"errors"
	"testing"
)

func TestEvaluateProperties(t *testing.T) {
	d := Medium
	for s := d.Min; s <= d.Max; s += 7 {
		for g := d.Min; g <= d.Max; g += 3 {
			ev := Evaluate(s, g, 0, false)
			if ev.Exact != (g == s) {
				t.Fatalf("S=%d G=%d: exact=%v", s, g, ev.Exact)
			}
			if ev.Difference != abs(s-g) {
				t.Fatalf("S=%d G=%d: difference=%d", s, g, ev.Difference)
			}
			if ev.Temperature != TemperatureNone {
				t.Fatalf("S=%d G=%d: first guess got temperature %q", s, g, ev.Temperature)
			}
			switch {
			case g < s && ev.Direction != TooLow,
				g > s && ev.Direction != TooHigh,
				g == s && ev.Direction != DirectionNone:
				t.Fatalf("S=%d G=%d: direction=%q", s, g, ev.Direction)
			}
		}
	}
}

func TestEvaluateTemperature(t *testing.T) {
	tests := []struct {
		name     string
		secret   int
		guess    int
		prevDiff int
		hasPrev  bool
		want     Temperature
	}{
		{"first guess", 50, 10, 0, false, TemperatureNone},
		{"closer", 50, 45, 10, true, Warmer},
		{"further", 50, 30, 10, true, Colder},
		{"same distance is colder", 50, 60, 10, true, Colder},
		{"exact match has no hint", 50, 50, 10, true, TemperatureNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.secret, tt.guess, tt.prevDiff, tt.hasPrev)
			if got.Temperature != tt.want {
				t.Errorf("temperature = %q, want %q", got.Temperature, tt.want)
			}
		})
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	a := Evaluate(77, 12, 40, true)
	b := Evaluate(77, 12, 40, true)
	if a != b {
		t.Fatalf("evaluations differ: %+v vs %+v", a, b)
	}
}

func TestRoundScenarioWin(t *testing.T) {
	r, err := New(Medium, 50)
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	want := []struct {
		guess int
		temp  Temperature
		dir   Direction
		state State
	}{
		{25, TemperatureNone, TooLow, StatePlaying},
		{75, Colder, TooHigh, StatePlaying},
		{60, Warmer, TooLow, StatePlaying},
		{50, TemperatureNone, DirectionNone, StateWon},
	}
	for i, w := range want {
		ev, st, err := r.ApplyGuess(w.guess)
		if err != nil {
			t.Fatalf("guess %d: %v", i+1, err)
		}
		if ev.Temperature != w.temp || ev.Direction != w.dir || st != w.state {
			t.Errorf("guess %d (%d): got (%q,%q,%s), want (%q,%q,%s)",
				i+1, w.guess, ev.Temperature, ev.Direction, st, w.temp, w.dir, w.state)
		}
	}
	if r.AttemptsUsed != 4 {
		t.Errorf("attempts used = %d, want 4", r.AttemptsUsed)
	}
	if _, _, err := r.ApplyGuess(50); !errors.Is(err, ErrRoundOver) {
		t.Errorf("guess after win: err = %v, want ErrRoundOver", err)
	}
}

func TestRoundScenarioLoseOnHard(t *testing.T) {
	d, err := ParseDifficulty("3")
	if err != nil {
		t.Fatalf("parse difficulty: %v", err)
	}
	if d.Min != 1 || d.Max != 200 || d.AttemptsMax != 5 {
		t.Fatalf("hard preset = %+v", d)
	}
	r, err := New(d, 199)
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	var st State
	for _, g := range []int{1, 2, 3, 4, 5} {
		if _, st, err = r.ApplyGuess(g); err != nil {
			t.Fatalf("guess %d: %v", g, err)
		}
	}
	if st != StateLost || !r.Finished() {
		t.Fatalf("state = %s, want lost", st)
	}
	if r.AttemptsLeft() != 0 {
		t.Errorf("attempts left = %d", r.AttemptsLeft())
	}
	if _, _, err := r.ApplyGuess(199); !errors.Is(err, ErrRoundOver) {
		t.Errorf("guess after loss: err = %v, want ErrRoundOver", err)
	}
}

func TestApplyGuessRejectsOutOfRange(t *testing.T) {
	r, _ := New(Easy, 10)
	if _, _, err := r.ApplyGuess(51); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if r.AttemptsUsed != 0 {
		t.Errorf("rejected guess consumed an attempt")
	}
	if _, ok := r.PreviousDifference(); ok {
		t.Errorf("rejected guess set previous difference")
	}
}

func TestPreviousDifferenceTracksLastGuessOnly(t *testing.T) {
	r, _ := New(Medium, 50)
	_, _, _ = r.ApplyGuess(49)   // diff 1
	_, _, _ = r.ApplyGuess(90)   // diff 40
	ev, _, _ := r.ApplyGuess(80) // diff 30 < 40
	if ev.Temperature != Warmer {
		t.Fatalf("temperature = %q, want warmer (compared with last guess, not the best)", ev.Temperature)
	}
	if d, _ := r.PreviousDifference(); d != 30 {
		t.Errorf("previous difference = %d, want 30", d)
	}
}

func TestNewRandomSecretInRange(t *testing.T) {
	for _, d := range Difficulties() {
		for i := 0; i < 200; i++ {
			r, err := New(d, 0)
			if err != nil {
				t.Fatalf("%s: %v", d.Key, err)
			}
			if !d.Contains(r.Secret) {
				t.Fatalf("%s: secret %d out of range", d.Key, r.Secret)
			}
		}
	}
	if _, err := New(Easy, 51); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("fixed secret out of range: err = %v", err)
	}
}

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]Difficulty{"1": Easy, "medium": Medium, " HARD ": Hard} {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Errorf("ParseDifficulty(%q) = %+v, %v", in, got, err)
		}
	}
	if _, err := ParseDifficulty("4"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Errorf("err = %v, want ErrUnknownDifficulty", err)
	}
}
