package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Recognizer = (*WhisperRecognizer)(nil)
	_ domain.Recognizer = (*KeyboardRecognizer)(nil)
)

// recordFunc records for up to d and returns the raw transcription. It
// calls captured once recording has ended and transcription begins.
type recordFunc func(ctx context.Context, d time.Duration, captured func()) (string, error)

// RecognizerOption configures the WhisperRecognizer.
type RecognizerOption func(*WhisperRecognizer)

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) RecognizerOption {
	return func(r *WhisperRecognizer) { r.tempDir = dir }
}

// WithMaxUtterance caps how long one session records.
func WithMaxUtterance(d time.Duration) RecognizerOption {
	return func(r *WhisperRecognizer) { r.maxUtterance = d }
}

// WithBusy makes each session wait until busy reports false before
// recording, so the microphone does not pick up our own speech.
func WithBusy(busy func() bool) RecognizerOption {
	return func(r *WhisperRecognizer) { r.busy = busy }
}

// WhisperRecognizer transcribes one utterance per session with a local
// whisper-cpp model.
//
// Each Start records up to maxUtterance of audio and emits EventCaptured
// when recording ends. It then runs whisper-cli over the clip and emits
// EventResult with the lowercased text, or EventSpeechEnd when nothing
// intelligible was said. Stop during recording aborts the session and
// discards its audio; once the audio is captured the session always
// finishes.
type WhisperRecognizer struct {
	whisperBin   string
	modelPath    string
	tempDir      string
	maxUtterance time.Duration
	busy         func() bool
	record       recordFunc
	log          *logger.Logger

	mu       sync.Mutex
	gen      uint64
	active   bool
	captured bool // the running session is transcribing
	cancel   context.CancelFunc
	events   chan domain.RecognitionEvent
}

// NewWhisperRecognizer creates a recognizer around whisper-cli. It fails
// with domain.ErrNoRecognizer when the binary cannot be found.
func NewWhisperRecognizer(whisperBin, modelPath string, log *logger.Logger, opts ...RecognizerOption) (*WhisperRecognizer, error) {
	if _, err := exec.LookPath(whisperBin); err != nil {
		return nil, fmt.Errorf("whisper binary %q: %w", whisperBin, domain.ErrNoRecognizer)
	}
	return newWhisperRecognizer(whisperBin, modelPath, log, opts...), nil
}

func newWhisperRecognizer(whisperBin, modelPath string, log *logger.Logger, opts ...RecognizerOption) *WhisperRecognizer {
	r := &WhisperRecognizer{
		whisperBin:   whisperBin,
		modelPath:    modelPath,
		tempDir:      ".otto-stt",
		maxUtterance: 4 * time.Second,
		log:          log,
		events:       make(chan domain.RecognitionEvent, 4),
	}
	r.record = r.recordWhisper
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events returns the channel sessions report to.
func (r *WhisperRecognizer) Events() <-chan domain.RecognitionEvent {
	return r.events
}

// Start begins a recognition session. It returns
// domain.ErrAlreadyListening if one is running.
func (r *WhisperRecognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return domain.ErrAlreadyListening
	}
	sctx, cancel := context.WithCancel(ctx)
	r.gen++
	r.active = true
	r.captured = false
	r.cancel = cancel

	go r.session(sctx, r.gen)
	r.log.Debug("recognizer: session %d started", r.gen)
	return nil
}

// Stop aborts the running session, if any, and discards its audio. A
// session whose audio is already captured is left to finish.
func (r *WhisperRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return
	}
	if r.captured {
		r.log.Debug("recognizer: session %d is transcribing, stop ignored", r.gen)
		return
	}
	r.cancel()
	r.active = false
	r.log.Debug("recognizer: session %d stopped", r.gen)
}

func (r *WhisperRecognizer) session(ctx context.Context, gen uint64) {
	r.waitQuiet(ctx)

	raw, err := r.record(ctx, r.maxUtterance, func() { r.markCaptured(gen) })

	r.mu.Lock()
	current := r.gen == gen && r.active
	if current {
		r.active = false
		r.captured = false
		r.cancel()
	}
	r.mu.Unlock()

	if !current || ctx.Err() != nil {
		r.log.Debug("recognizer: session %d discarded", gen)
		return
	}
	if err != nil {
		r.log.Error("recognizer: %v", err)
	}

	text := strings.ToLower(cleanTranscription(raw))
	ev := domain.RecognitionEvent{Kind: domain.EventSpeechEnd}
	if text != "" {
		ev = domain.RecognitionEvent{Kind: domain.EventResult, Transcript: text}
		r.log.Info("recognizer: heard %q", text)
	} else {
		r.log.Debug("recognizer: session %d ended without speech", gen)
	}
	r.emit(ev)
}

// markCaptured switches session gen to transcribing, unless it was
// stopped while recording.
func (r *WhisperRecognizer) markCaptured(gen uint64) {
	r.mu.Lock()
	current := r.gen == gen && r.active
	if current {
		r.captured = true
	}
	r.mu.Unlock()

	if current {
		r.log.Debug("recognizer: session %d captured, transcribing", gen)
		r.emit(domain.RecognitionEvent{Kind: domain.EventCaptured})
	}
}

func (r *WhisperRecognizer) emit(ev domain.RecognitionEvent) {
	select {
	case r.events <- ev:
	default:
		r.log.Warn("recognizer: %s event dropped, consumer is not reading", ev.Kind)
	}
}

// waitQuiet blocks while busy reports true.
func (r *WhisperRecognizer) waitQuiet(ctx context.Context) {
	if r.busy == nil {
		return
	}
	for r.busy() {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
}

// recordWhisper does one recording cycle through whisper-cli.
func (r *WhisperRecognizer) recordWhisper(ctx context.Context, d time.Duration, captured func()) (string, error) {
	done := make(chan string, 1)
	callback := func(text string) {
		select {
		case done <- text:
		default:
		}
	}

	verbose := r.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(r.whisperBin, r.modelPath, r.tempDir, "wav", callback, verbose)
	if err != nil {
		return "", fmt.Errorf("transcriber init: %w", err)
	}
	if err := t.Start(); err != nil {
		return "", fmt.Errorf("recording start: %w", err)
	}

	timer := time.NewTimer(d)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		t.Stop()
		return "", ctx.Err()
	}
	t.Stop()
	captured()

	select {
	case text := <-done:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(30 * time.Second):
		return "", errors.New("transcription timed out")
	}
}

// KeyboardRecognizer is a recognizer without audio. Sessions start and
// stop, but transcripts arrive typed through the UI instead of Events.
type KeyboardRecognizer struct {
	log    *logger.Logger
	mu     sync.Mutex
	active bool
	events chan domain.RecognitionEvent
}

// NewKeyboardRecognizer creates a keyboard-only recognizer.
func NewKeyboardRecognizer(log *logger.Logger) *KeyboardRecognizer {
	return &KeyboardRecognizer{log: log, events: make(chan domain.RecognitionEvent)}
}

// Start marks a session active.
func (k *KeyboardRecognizer) Start(context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.active {
		return domain.ErrAlreadyListening
	}
	k.active = true
	k.log.Debug("keyboard recognizer: waiting for typed input")
	return nil
}

// Stop ends the session.
func (k *KeyboardRecognizer) Stop() {
	k.mu.Lock()
	k.active = false
	k.mu.Unlock()
}

// Events never delivers; typed text goes straight to the controller.
func (k *KeyboardRecognizer) Events() <-chan domain.RecognitionEvent {
	return k.events
}
