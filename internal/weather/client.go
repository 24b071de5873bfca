// internal/weather/client.go
//
// wttr.in client. No API key: GET {base}/{city}?format=j1 returns JSON with
// current_condition and nearest_area arrays whose values are all strings.

package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound  = errors.New("city not found or service unavailable")
	ErrMalformed = errors.New("unexpected weather payload")
)

// Report is the normalized current weather for one place.
type Report struct {
	City          string
	Region        string
	Country       string
	Description   string
	TemperatureC  float64
	FeelsLikeC    float64
	HumidityPct   int
	WindKmph      float64
	WindDirection string
	VisibilityKm  float64
	PressureMb    float64
	CloudCoverPct int
}

// Location joins city, region and country, skipping empty parts.
func (r Report) Location() string {
	parts := []string{r.City}
	if r.Region != "" {
		parts = append(parts, r.Region)
	}
	if r.Country != "" {
		parts = append(parts, r.Country)
	}
	return strings.Join(parts, ", ")
}

// Client fetches reports from a wttr.in-compatible endpoint.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the current weather for city.
func (c *Client) Fetch(ctx context.Context, city string) (Report, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Report{}, fmt.Errorf("%w: empty city", ErrNotFound)
	}
	u := c.base + "/" + url.PathEscape(strings.ReplaceAll(city, " ", "+")) + "?format=j1"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Report{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "desktools")

	log.Debug().Str("url", u).Msg("fetching weather")
	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p.report()
}

type value struct {
	Value string `json:"value"`
}

type payload struct {
	CurrentCondition []struct {
		TempC          string  `json:"temp_C"`
		FeelsLikeC     string  `json:"FeelsLikeC"`
		Humidity       string  `json:"humidity"`
		WeatherDesc    []value `json:"weatherDesc"`
		WindspeedKmph  string  `json:"windspeedKmph"`
		Winddir16Point string  `json:"winddir16Point"`
		Visibility     string  `json:"visibility"`
		Pressure       string  `json:"pressure"`
		Cloudcover     string  `json:"cloudcover"`
	} `json:"current_condition"`
	NearestArea []struct {
		AreaName []value `json:"areaName"`
		Region   []value `json:"region"`
		Country  []value `json:"country"`
	} `json:"nearest_area"`
}

func first(vs []value) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0].Value
}

func (p payload) report() (Report, error) {
	if len(p.CurrentCondition) == 0 || len(p.NearestArea) == 0 {
		return Report{}, fmt.Errorf("%w: missing current_condition or nearest_area", ErrMalformed)
	}
	cur, area := p.CurrentCondition[0], p.NearestArea[0]

	var perr error
	num := func(field, s string) float64 {
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && perr == nil {
			perr = fmt.Errorf("%w: %s=%q", ErrMalformed, field, s)
		}
		return f
	}

	r := Report{
		City:          first(area.AreaName),
		Region:        first(area.Region),
		Country:       first(area.Country),
		Description:   first(cur.WeatherDesc),
		TemperatureC:  num("temp_C", cur.TempC),
		FeelsLikeC:    num("FeelsLikeC", cur.FeelsLikeC),
		HumidityPct:   int(num("humidity", cur.Humidity)),
		WindKmph:      num("windspeedKmph", cur.WindspeedKmph),
		WindDirection: cur.Winddir16Point,
		VisibilityKm:  num("visibility", cur.Visibility),
		PressureMb:    num("pressure", cur.Pressure),
		CloudCoverPct: int(num("cloudcover", cur.Cloudcover)),
	}
	if perr != nil {
		return Report{}, perr
	}
	if cur.TempC == "" || r.City == "" {
		return Report{}, fmt.Errorf("%w: missing temperature or area name", ErrMalformed)
	}
	return r, nil
}
