package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/logger"
)

type fakeEngine struct {
	mu         sync.Mutex
	voices     []Voice
	listErrs   []error // returned by successive Voices calls
	listCalls  int
	synthVoice []string
}

func (e *fakeEngine) Voices(context.Context) ([]Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listCalls++
	if len(e.listErrs) > 0 {
		err := e.listErrs[0]
		e.listErrs = e.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return e.voices, nil
}

func (e *fakeEngine) Synthesize(_ context.Context, v Voice, text string) ([]byte, error) {
	e.mu.Lock()
	e.synthVoice = append(e.synthVoice, v.ID)
	e.mu.Unlock()
	return []byte(text), nil
}

func (e *fakeEngine) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listCalls
}

type fakeSink struct {
	played chan string
}

func newFakeSink() *fakeSink { return &fakeSink{played: make(chan string, 16)} }

func (s *fakeSink) Play(wav []byte) error {
	s.played <- string(wav)
	return nil
}

func (s *fakeSink) Stop() {}

func (s *fakeSink) next(t *testing.T) string {
	t.Helper()
	select {
	case p := <-s.played:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playback")
		return ""
	}
}

func TestSynthesizerSpeaksInOrder(t *testing.T) {
	engine := &fakeEngine{voices: []Voice{
		{ID: "guy", Name: "Guy (Male)"},
		{ID: "aria", Name: "Aria (Female)"},
	}}
	sink := newFakeSink()
	s := NewSynthesizer(engine, sink, logger.New(logger.LevelOff, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Say("You said: time")
	s.Say("The current time is 09:15 AM")
	s.Say("   ")
	s.Say("Image captured")

	for _, want := range []string{"You said: time", "The current time is 09:15 AM", "Image captured"} {
		if got := sink.next(t); got != want {
			t.Fatalf("played %q, want %q", got, want)
		}
	}

	if n := engine.calls(); n != 1 {
		t.Errorf("Voices called %d times, want 1", n)
	}
	v, ok := s.Voice()
	if !ok || v.ID != "aria" {
		t.Errorf("voice = %+v, want aria", v)
	}
}

func TestSynthesizerRetriesFailedVoiceListing(t *testing.T) {
	engine := &fakeEngine{
		voices:   []Voice{{ID: "only", Name: "Only"}},
		listErrs: []error{errors.New("not ready"), nil},
	}
	sink := newFakeSink()
	s := NewSynthesizer(engine, sink, logger.New(logger.LevelOff, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Say("first")  // listing fails, dropped
	s.Say("second") // listing retried
	if got := sink.next(t); got != "second" {
		t.Fatalf("played %q, want second", got)
	}
	if n := engine.calls(); n != 2 {
		t.Errorf("Voices called %d times, want 2", n)
	}
}

func TestSynthesizerUsesCache(t *testing.T) {
	engine := &fakeEngine{voices: []Voice{{ID: "v", Name: "V"}}}
	sink := newFakeSink()
	cache := NewAudioCache("", false, logger.New(logger.LevelOff, nil))
	s := NewSynthesizer(engine, sink, logger.New(logger.LevelOff, nil), WithCache(cache))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Say("Image captured")
	sink.next(t)
	s.Say("Image captured")
	sink.next(t)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.synthVoice) != 1 {
		t.Fatalf("synthesized %d times, want 1", len(engine.synthVoice))
	}
}

func TestSplitChunks(t *testing.T) {
	s := &Synthesizer{chunkSize: 20}
	got := s.splitChunks("First sentence here. Second one! Third?")
	want := []string{"First sentence here.", "Second one! Third?"}
	if len(got) != len(want) {
		t.Fatalf("chunks = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWithChunkSize(t *testing.T) {
	text := "First sentence here. Second one! Third?"
	whole := NewSynthesizer(&fakeEngine{}, newFakeSink(), logger.New(logger.LevelOff, nil), WithChunkSize(0))
	if got := whole.splitChunks(text); len(got) != 1 {
		t.Fatalf("chunk size 0 split into %q", got)
	}
	small := NewSynthesizer(&fakeEngine{}, newFakeSink(), logger.New(logger.LevelOff, nil), WithChunkSize(20))
	if got := small.splitChunks(text); len(got) != 2 {
		t.Fatalf("chunk size 20 split into %q", got)
	}
}

func TestSynthesizerInterruptClearsQueue(t *testing.T) {
	engine := &fakeEngine{voices: []Voice{{ID: "aria", Name: "Aria (Female)"}}}
	sink := newFakeSink()
	s := NewSynthesizer(engine, sink, logger.New(logger.LevelOff, nil))

	s.Say("an old answer")
	s.Say("another old answer")
	if !s.IsSpeaking() {
		t.Fatal("queued speech should count as speaking")
	}

	s.Interrupt()
	if s.IsSpeaking() {
		t.Fatal("still speaking after interrupt")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Say("fresh")
	if got := sink.next(t); got != "fresh" {
		t.Fatalf("played %q, want fresh", got)
	}
}
