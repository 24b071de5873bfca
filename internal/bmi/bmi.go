// internal/bmi/bmi.go
//
// Body-mass-index calculator: formula, WHO categories and the interactive command.

package bmi

import (
	"context"
	"errors"
	"strings"

	"github.com/robalobadob/desktools/internal/console"
)

var ErrNonPositiveHeight = errors.New("height must be positive")

// Input bounds accepted by the command.
const (
	MinWeightKg = 1.0
	MaxWeightKg = 300.0
	MinHeightM  = 0.5
	MaxHeightM  = 2.5
)

// Calculate returns weight / height².
func Calculate(weightKg, heightM float64) (float64, error) {
	if heightM <= 0 {
		return 0, ErrNonPositiveHeight
	}
	return weightKg / (heightM * heightM), nil
}

// Category maps a BMI onto the WHO adult bands.
func Category(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obesity"
	}
}

// Command is the interactive calculator.
type Command struct {
	p *console.Prompter
}

func New(p *console.Prompter) *Command { return &Command{p: p} }

// Run loops until the player declines another calculation or input ends.
func (c *Command) Run(ctx context.Context) error {
	c.p.Println("=== BMI Calculator ===")
	c.p.Println("Note: Height should be in meters (e.g., 1.75 for 175cm)")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := c.once()
		if errors.Is(err, console.ErrClosed) {
			c.p.Println("\n\nProgram interrupted. Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}
		if !more {
			c.p.Println("\nThank you for using the BMI Calculator!")
			return nil
		}
		c.p.Println()
	}
}

func (c *Command) once() (bool, error) {
	weight, err := c.p.Float("Enter your weight in kg (1-300): ", MinWeightKg, MaxWeightKg)
	if err != nil {
		return false, err
	}
	height, err := c.p.Float("Enter your height in meters (e.g., 1.75): ", MinHeightM, MaxHeightM)
	if err != nil {
		return false, err
	}
	value, err := Calculate(weight, height)
	if err != nil {
		return false, err
	}

	rule := strings.Repeat("=", 40)
	c.p.Println("\n" + rule)
	c.p.Printf("Weight: %.1f kg\n", weight)
	c.p.Printf("Height: %.2f m\n", height)
	c.p.Printf("BMI: %.2f\n", value)
	c.p.Printf("Category: %s\n", Category(value))
	c.p.Println(rule)

	c.p.Println("\nBMI Categories:")
	c.p.Println("• Underweight: < 18.5")
	c.p.Println("• Normal weight: 18.5–24.9")
	c.p.Println("• Overweight: 25–29.9")
	c.p.Println("• Obesity: ≥ 30")

	return c.p.YesNo("\nDo you want to calculate again? (yes/no): ")
}
