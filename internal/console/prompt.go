// internal/console/prompt.go
//
// Line-oriented prompting for the interactive commands.
// Every reader re-prompts on invalid input until a valid answer arrives
// or input is exhausted (ErrClosed).

package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ErrClosed is returned once the input stream is exhausted.
var ErrClosed = errors.New("console: input closed")

// Prompter reads answers from in and writes prompts/feedback to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Out exposes the output writer so commands print through the same stream.
func (p *Prompter) Out() io.Writer { return p.out }

// Printf writes formatted output.
func (p *Prompter) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Println writes a line.
func (p *Prompter) Println(args ...any) {
	fmt.Fprintln(p.out, args...)
}

// Line prints prompt and returns the next trimmed line.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && s != "" {
			return strings.TrimSpace(s), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrClosed
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// Int reads an integer in [min, max].
func (p *Prompter) Int(min, max int) (int, error) {
	prompt := fmt.Sprintf("Enter a number (%d - %d): ", min, max)
	for {
		s, err := p.Line(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			p.Println("Invalid input! Numbers only.")
			continue
		}
		if n < min || n > max {
			p.Println("Out of range!")
			continue
		}
		return n, nil
	}
}

// Float reads a number strictly greater than min and, when max > 0, at most max.
func (p *Prompter) Float(prompt string, min, max float64) (float64, error) {
	for {
		s, err := p.Line(prompt)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			p.Println("Invalid input. Please enter a valid number.")
			continue
		}
		if v <= min {
			p.Printf("Please enter a number greater than %g.\n", min)
			continue
		}
		if max > 0 && v > max {
			p.Printf("Please enter a number less than or equal to %g.\n", max)
			continue
		}
		return v, nil
	}
}

// Choice reads one of options (case-insensitive) and returns it lowercased.
func (p *Prompter) Choice(prompt string, options ...string) (string, error) {
	for {
		s, err := p.Line(prompt)
		if err != nil {
			return "", err
		}
		s = strings.ToLower(s)
		if lo.Contains(options, s) {
			return s, nil
		}
		p.Println("Invalid choice!")
	}
}

// YesNo asks until the answer is yes/y/no/n.
func (p *Prompter) YesNo(prompt string) (bool, error) {
	for {
		s, err := p.Line(prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.Println("Please enter 'yes' or 'no'")
	}
}
