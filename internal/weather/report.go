// internal/weather/report.go
//
// Presentation of a Report: icon, clothing advice, console block and saved file.

package weather

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

type iconRule struct {
	icon     string
	keywords []string
}

// Checked in order; the first matching rule wins.
var iconRules = []iconRule{
	{"☀️", []string{"sunny", "clear"}},
	{"☁️", []string{"cloud"}},
	{"🌧️", []string{"rain", "drizzle"}},
	{"⛈️", []string{"storm", "thunder"}},
	{"❄️", []string{"snow", "ice", "sleet"}},
	{"🌫️", []string{"fog", "mist", "haze"}},
	{"💨", []string{"wind"}},
}

// Icon picks an emoji for a weather description.
func Icon(description string) string {
	desc := strings.ToLower(description)
	rule, ok := lo.Find(iconRules, func(r iconRule) bool {
		return lo.SomeBy(r.keywords, func(k string) bool { return strings.Contains(desc, k) })
	})
	if !ok {
		return "🌤️"
	}
	return rule.icon
}

// Advice returns clothing and wind recommendations for r.
func Advice(r Report) []string {
	var out []string
	switch t := r.TemperatureC; {
	case t <= 0:
		out = append(out, "🧊 ❄️  It's freezing! Wear heavy winter clothes!")
	case t < 10:
		out = append(out, "🧥 It's cold! Wear a warm coat, scarf, and gloves.")
	case t < 20:
		out = append(out, "🧥 It's cool! A light jacket would be perfect.")
	case t < 30:
		out = append(out, "😎 Pleasant weather! T-shirt weather!")
	default:
		out = append(out, "🔥 It's hot! Stay hydrated and wear light clothes!")
	}
	if r.WindKmph > 30 {
		out = append(out, "💨 It's windy! Hold onto your hat!")
	}
	return out
}

// Render writes the full console report.
func Render(w io.Writer, r Report) {
	heavy, light := strings.Repeat("=", 50), strings.Repeat("-", 50)
	fmt.Fprintln(w, "\n"+heavy)
	fmt.Fprintln(w, "🌤️  WEATHER REPORT")
	fmt.Fprintln(w, heavy)
	fmt.Fprintf(w, "📍 Location: %s\n", r.Location())
	fmt.Fprintln(w, light)
	fmt.Fprintf(w, "🌡️  Temperature: %g°C\n", r.TemperatureC)
	fmt.Fprintf(w, "🤔 Feels like: %g°C\n", r.FeelsLikeC)
	fmt.Fprintf(w, "💧 Humidity: %d%%\n", r.HumidityPct)
	fmt.Fprintf(w, "☁️  Conditions: %s %s\n", Icon(r.Description), r.Description)
	fmt.Fprintf(w, "💨 Wind: %g km/h %s\n", r.WindKmph, r.WindDirection)
	fmt.Fprintf(w, "👁️  Visibility: %g km\n", r.VisibilityKm)
	fmt.Fprintf(w, "📊 Pressure: %g mb\n", r.PressureMb)
	fmt.Fprintf(w, "☁️  Cloud cover: %d%%\n", r.CloudCoverPct)
	fmt.Fprintln(w, light)
	for _, line := range Advice(r) {
		fmt.Fprintln(w, line)
	}
}

// FileName is the report file name for a city query.
func FileName(city string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(city))
	return "weather_" + clean + ".txt"
}

// Save writes a plain-text report into dir and returns the file path.
func Save(dir, city string, r Report) (string, error) {
	path := filepath.Join(dir, FileName(city))
	var b strings.Builder
	fmt.Fprintf(&b, "Weather Report for %s\n", r.City)
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Temperature: %g°C\n", r.TemperatureC)
	fmt.Fprintf(&b, "Feels like: %g°C\n", r.FeelsLikeC)
	fmt.Fprintf(&b, "Humidity: %d%%\n", r.HumidityPct)
	fmt.Fprintf(&b, "Conditions: %s %s\n", Icon(r.Description), r.Description)
	fmt.Fprintf(&b, "Wind: %g km/h %s\n", r.WindKmph, r.WindDirection)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
