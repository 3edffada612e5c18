package action

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/hammamikhairi/ottovoice/internal/domain"
)

// kelvinOffset converts Kelvin to Celsius.
const kelvinOffset = 273.15

// Joke fetches a random two-part joke.
type Joke struct {
	Deps
	Client   JSONGetter
	Endpoint string
}

// Handle displays and speaks "<setup> - <punchline>". On failure the
// display is left untouched.
func (h *Joke) Handle(ctx context.Context, _ string) error {
	doc, err := h.Client.GetJSON(ctx, h.Endpoint)
	if err != nil {
		return fmt.Errorf("fetch joke: %w", err)
	}
	setup, punchline := doc.Get("setup"), doc.Get("punchline")
	if !setup.Exists() || !punchline.Exists() {
		return fmt.Errorf("joke missing setup or punchline: %w", domain.ErrBadResponse)
	}
	h.respond(setup.String() + " - " + punchline.String())
	return nil
}

// Weather reports current conditions for one configured city.
type Weather struct {
	Deps
	Client   JSONGetter
	Endpoint string
	City     string
	APIKey   string
}

// ErrNoAPIKey is returned when no weather credential is configured.
var ErrNoAPIKey = errors.New("weather api key is not configured")

// Handle displays and speaks the temperature in Celsius and the sky
// description. On failure the display is left untouched.
func (h *Weather) Handle(ctx context.Context, _ string) error {
	if h.APIKey == "" {
		return ErrNoAPIKey
	}

	u, err := url.Parse(h.Endpoint)
	if err != nil {
		return fmt.Errorf("weather endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", h.City)
	q.Set("appid", h.APIKey)
	u.RawQuery = q.Encode()

	doc, err := h.Client.GetJSON(ctx, u.String())
	if err != nil {
		return fmt.Errorf("fetch weather: %w", err)
	}
	temp, desc := doc.Get("main.temp"), doc.Get("weather.0.description")
	if !temp.Exists() || !desc.Exists() {
		return fmt.Errorf("weather missing main.temp or description: %w", domain.ErrBadResponse)
	}

	h.respond(fmt.Sprintf("The current weather in %s is %s°C with %s.",
		h.City, Celsius(temp.Float()), desc.String()))
	return nil
}

// Celsius formats a Kelvin temperature as Celsius with two decimals.
func Celsius(kelvin float64) string {
	return fmt.Sprintf("%.2f", kelvin-kelvinOffset)
}

// Unavailable answers commands that have no data source yet.
type Unavailable struct {
	Deps
	Topic string // plural noun, e.g. "fun facts"
}

// Handle displays and speaks an apology.
func (h *Unavailable) Handle(ctx context.Context, _ string) error {
	h.respond(fmt.Sprintf("Sorry, %s are not available yet.", h.Topic))
	return nil
}
