package command

import (
	"context"
	"errors"
	"testing"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

type fakeDisplay struct {
	text string
}

func (d *fakeDisplay) ShowText(s string) { d.text = s }
func (d *fakeDisplay) ShowImage(uri, alt string) { d.text = alt }
func (d *fakeDisplay) ShowPreview(bool) {}

func TestMatch(t *testing.T) {
	in := New(&fakeDisplay{}, logger.New(logger.LevelOff, nil))

	tests := []struct {
		transcript string
		want       domain.Action
	}{
		{"play bohemian rhapsody", domain.ActionPlay},
		{"what time is it", domain.ActionTime},
		{"what is the date today", domain.ActionDate},
		{"tell me a joke", domain.ActionJoke},
		{"how is the weather", domain.ActionWeather},
		{"tell me a fun fact", domain.ActionFunFact},
		{"read the news", domain.ActionNews},
		{"capture a photo", domain.ActionCapture},
		{"search best pizza recipe", domain.ActionSearch},

		// Priority: first rule in order wins.
		{"play the weather news", domain.ActionPlay},
		{"search for the time", domain.ActionTime},
		{"update the news", domain.ActionDate},
		{"weather news", domain.ActionWeather},

		// Substring, not token.
		{"display settings", domain.ActionPlay},
		{"Search Cats", domain.ActionSearch},

		{"open the pod bay doors", domain.ActionUnknown},
		{"", domain.ActionUnknown},
	}

	for _, tt := range tests {
		if got := in.Match(tt.transcript); got != tt.want {
			t.Errorf("Match(%q) = %s, want %s", tt.transcript, got, tt.want)
		}
	}
}

func TestDispatchInvokesOneHandler(t *testing.T) {
	in := New(&fakeDisplay{}, logger.New(logger.LevelOff, nil))

	calls := map[domain.Action]string{}
	for _, a := range []domain.Action{domain.ActionPlay, domain.ActionWeather, domain.ActionNews} {
		a := a
		in.Bind(a, HandlerFunc(func(_ context.Context, t string) error {
			calls[a] = t
			return nil
		}))
	}

	action, err := in.Dispatch(context.Background(), "play the weather news")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if action != domain.ActionPlay {
		t.Fatalf("action = %s, want play", action)
	}
	if len(calls) != 1 || calls[domain.ActionPlay] != "play the weather news" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestDispatchUnrecognized(t *testing.T) {
	d := &fakeDisplay{text: "You said: hello"}
	in := New(d, logger.New(logger.LevelOff, nil))

	action, err := in.Dispatch(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if action != domain.ActionUnknown {
		t.Fatalf("action = %s, want unknown", action)
	}
	if d.text != MsgUnrecognized {
		t.Fatalf("display = %q", d.text)
	}
}

func TestDispatchErrors(t *testing.T) {
	in := New(&fakeDisplay{}, logger.New(logger.LevelOff, nil))
	boom := errors.New("boom")
	in.Bind(domain.ActionJoke, HandlerFunc(func(context.Context, string) error { return boom }))

	if _, err := in.Dispatch(context.Background(), "joke"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, err := in.Dispatch(context.Background(), "capture"); !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("err = %v, want ErrNotImplemented", err)
	}
}
