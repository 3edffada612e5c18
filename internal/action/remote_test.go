package action

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

func TestJoke(t *testing.T) {
	deps, d, s, _ := newDeps()
	g := &fakeGetter{body: `{"setup":"Why did the chicken cross the road?","punchline":"To get to the other side."}`}
	h := &Joke{Deps: deps, Client: g, Endpoint: "http://jokes.test/random"}

	if err := h.Handle(context.Background(), "tell me a joke"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := "Why did the chicken cross the road? - To get to the other side."
	if d.text != want {
		t.Errorf("display = %q", d.text)
	}
	if len(s.said) != 1 || s.said[0] != want {
		t.Errorf("spoken = %v", s.said)
	}
	if len(g.urls) != 1 || g.urls[0] != "http://jokes.test/random" {
		t.Errorf("urls = %v", g.urls)
	}
}

func TestJokeFailureLeavesDisplay(t *testing.T) {
	tests := []struct {
		name string
		g    *fakeGetter
	}{
		{"network", &fakeGetter{err: errors.New("connection refused")}},
		{"missing fields", &fakeGetter{body: `{"type":"general"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, d, s, _ := newDeps()
			d.text = "You said: tell me a joke"
			h := &Joke{Deps: deps, Client: tt.g}

			if err := h.Handle(context.Background(), "tell me a joke"); err == nil {
				t.Fatal("expected error")
			}
			if d.text != "You said: tell me a joke" {
				t.Errorf("display changed to %q", d.text)
			}
			if len(s.said) != 0 {
				t.Errorf("nothing should be spoken, got %v", s.said)
			}
		})
	}
}

func TestWeather(t *testing.T) {
	deps, d, s, _ := newDeps()
	g := &fakeGetter{body: `{"main":{"temp":300.00},"weather":[{"description":"light rain"}]}`}
	h := &Weather{
		Deps:     deps,
		Client:   g,
		Endpoint: "https://api.openweathermap.org/data/2.5/weather",
		City:     "London",
		APIKey:   "k3y",
	}

	if err := h.Handle(context.Background(), "weather"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := "The current weather in London is 26.85°C with light rain."
	if d.text != want {
		t.Errorf("display = %q, want %q", d.text, want)
	}
	if len(s.said) != 1 || s.said[0] != want {
		t.Errorf("spoken = %v", s.said)
	}

	u, err := url.Parse(g.urls[0])
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Query().Get("q") != "London" || u.Query().Get("appid") != "k3y" {
		t.Errorf("query = %q", u.RawQuery)
	}
}

func TestWeatherFailures(t *testing.T) {
	tests := []struct {
		name string
		key  string
		g    *fakeGetter
	}{
		{"missing key", "", &fakeGetter{body: `{}`}},
		{"network", "k", &fakeGetter{err: errors.New("timeout")}},
		{"missing temp", "k", &fakeGetter{body: `{"weather":[{"description":"fog"}]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, d, _, _ := newDeps()
			d.text = "prior"
			h := &Weather{Deps: deps, Client: tt.g, Endpoint: "http://w.test", City: "London", APIKey: tt.key}
			if err := h.Handle(context.Background(), "weather"); err == nil {
				t.Fatal("expected error")
			}
			if d.text != "prior" {
				t.Errorf("display changed to %q", d.text)
			}
		})
	}
}

func TestCelsius(t *testing.T) {
	tests := []struct {
		kelvin float64
		want   string
	}{
		{300.00, "26.85"},
		{273.15, "0.00"},
		{0, "-273.15"},
	}
	for _, tt := range tests {
		if got := Celsius(tt.kelvin); got != tt.want {
			t.Errorf("Celsius(%v) = %q, want %q", tt.kelvin, got, tt.want)
		}
	}
}

func TestUnavailable(t *testing.T) {
	deps, d, s, _ := newDeps()
	h := &Unavailable{Deps: deps, Topic: "fun facts"}
	if err := h.Handle(context.Background(), "fun fact"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := "Sorry, fun facts are not available yet."
	if d.text != want || len(s.said) != 1 || s.said[0] != want {
		t.Errorf("display = %q, spoken = %v", d.text, s.said)
	}
}
