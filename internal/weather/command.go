// internal/weather/command.go
//
// Interactive weather lookup.

package weather

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/desktools/internal/console"
)

// Fetcher is satisfied by *Client.
type Fetcher interface {
	Fetch(ctx context.Context, city string) (Report, error)
}

// Command runs the lookup loop until the user quits or input ends.
type Command struct {
	p         *console.Prompter
	f         Fetcher
	reportDir string
}

func NewCommand(p *console.Prompter, f Fetcher, reportDir string) *Command {
	return &Command{p: p, f: f, reportDir: reportDir}
}

func (c *Command) Run(ctx context.Context) error {
	heavy := strings.Repeat("=", 60)
	c.p.Println(heavy)
	c.p.Println("🌤️  SIMPLE WEATHER APP")
	c.p.Println("Get real-time weather for any city worldwide!")
	c.p.Println(heavy)
	c.p.Println("\n💡 Try these cities:")
	c.p.Println("  New York, London, Tokyo, Paris, Sydney, Delhi, Dubai")

	for {
		c.p.Println("\n" + strings.Repeat("-", 60))
		city, err := c.p.Line("\nEnter city name (or 'menu' for options, 'quit' to exit): ")
		if errors.Is(err, console.ErrClosed) {
			city = "quit"
		} else if err != nil {
			return err
		}

		switch strings.ToLower(city) {
		case "quit", "exit", "q":
			c.p.Println("\n" + heavy)
			c.p.Println("Thanks for using Weather App! Stay safe! 👋")
			c.p.Println(heavy)
			return nil
		case "menu":
			c.printMenu()
			continue
		case "":
			c.p.Println("⚠️  Please enter a city name")
			continue
		}

		if err := c.lookup(ctx, city); err != nil {
			return err
		}
	}
}

func (c *Command) printMenu() {
	c.p.Println("\n📱 MENU OPTIONS:")
	c.p.Println("1. Enter city name (e.g., 'London')")
	c.p.Println("2. City with country (e.g., 'Paris, France')")
	c.p.Println("3. Multiple words (e.g., 'New York')")
	c.p.Println("4. 'quit' - Exit the app")
}

// lookup fetches, renders and optionally saves one report. Only input errors
// other than a closed stream are returned; fetch failures are shown and skipped.
func (c *Command) lookup(ctx context.Context, city string) error {
	c.p.Println("🌍 Fetching weather data...")
	r, err := c.f.Fetch(ctx, city)
	if err != nil {
		log.Warn().Err(err).Str("city", city).Msg("weather lookup failed")
		if errors.Is(err, ErrNotFound) {
			c.p.Printf("❌ Error: City '%s' not found or network issue\n", city)
		}
		c.p.Printf("😔 Could not get weather for '%s'\n", city)
		c.p.Println("💡 Try: Check spelling, use English city names, or try a nearby city")
		return nil
	}

	Render(c.p.Out(), r)

	save, err := c.p.Line("\n📝 Save this report to file? (y/n): ")
	if errors.Is(err, console.ErrClosed) {
		return nil
	}
	if err != nil {
		return err
	}
	if strings.ToLower(save) != "y" {
		return nil
	}
	path, err := Save(c.reportDir, city, r)
	if err != nil {
		log.Warn().Err(err).Msg("save weather report")
		c.p.Println("❌ Could not save file")
		return nil
	}
	c.p.Printf("✅ Report saved as '%s'\n", path)
	return nil
}
