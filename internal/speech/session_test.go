package speech

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/assistant"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

type sessionDisplay struct {
	mu   sync.Mutex
	text string
}

func (d *sessionDisplay) ShowText(s string) {
	d.mu.Lock()
	d.text = s
	d.mu.Unlock()
}

func (d *sessionDisplay) ShowImage(string, string) {}
func (d *sessionDisplay) ShowPreview(bool) {}

type sessionDispatcher struct {
	seen chan string
}

func (d *sessionDispatcher) Dispatch(_ context.Context, t string) (domain.Action, error) {
	d.seen <- t
	return domain.ActionTime, nil
}

// Transcription outlasting the inactivity timeout must still reach the
// interpreter.
func TestSlowTranscriptionReachesInterpreter(t *testing.T) {
	r := newTestRecognizer(func(_ context.Context, _ time.Duration, captured func()) (string, error) {
		time.Sleep(10 * time.Millisecond)
		captured()
		time.Sleep(200 * time.Millisecond)
		return "What time is it", nil
	})

	disp := &sessionDispatcher{seen: make(chan string, 1)}
	ctrl, err := assistant.New(&sessionDisplay{}, r, disp, NewNoOp(logger.New(logger.LevelOff, nil)),
		logger.New(logger.LevelOff, nil), assistant.WithTimeout(60*time.Millisecond))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ctrl.Run(ctx) }()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case got := <-disp.seen:
		if got != "what time is it" {
			t.Fatalf("dispatched %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("transcript never reached the interpreter")
	}
	cancel()
	ctrl.Wait()
}

// Without the captured event the same session is abandoned by the timer.
func TestSilentSessionTimesOut(t *testing.T) {
	r := newTestRecognizer(func(ctx context.Context, _ time.Duration, _ func()) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	display := &sessionDisplay{}
	disp := &sessionDispatcher{seen: make(chan string, 1)}
	ctrl, err := assistant.New(display, r, disp, NewNoOp(logger.New(logger.LevelOff, nil)),
		logger.New(logger.LevelOff, nil), assistant.WithTimeout(30*time.Millisecond))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ctrl.Run(ctx) }()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Listening() {
		if time.Now().After(deadline) {
			t.Fatal("session never timed out")
		}
		time.Sleep(5 * time.Millisecond)
	}
	display.mu.Lock()
	defer display.mu.Unlock()
	if display.text != assistant.MsgPrompt {
		t.Fatalf("display = %q, want prompt", display.text)
	}
}
