package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*Synthesizer)(nil)

// ErrNoVoice is returned when the engine offers no voices.
var ErrNoVoice = errors.New("no synthesis voice available")

// SynthOption configures the Synthesizer.
type SynthOption func(*Synthesizer)

// WithChunkSize sets the approximate max character count per synthesis
// request. Longer text is split at sentence boundaries and synthesized
// in parallel so playback doesn't stall between sentences.
func WithChunkSize(n int) SynthOption {
	return func(s *Synthesizer) {
		s.chunkSize = n
	}
}

// WithCache sets the audio cache. Without it a memory-only cache is used.
func WithCache(c *AudioCache) SynthOption {
	return func(s *Synthesizer) {
		s.cache = c
	}
}

type utterance struct {
	text     string
	queuedAt time.Time
}

// Synthesizer serializes all speech output through a single pipeline:
// queue -> resolve voice -> synthesize -> play. Utterances are spoken
// in the order they were queued, one at a time.
//
// The voice is chosen once with [SelectVoice] and reused. A failed or
// empty voice listing is not remembered, so the next utterance asks the
// engine again.
type Synthesizer struct {
	engine Engine
	sink   AudioSink
	log    *logger.Logger
	cache  *AudioCache

	mu          sync.Mutex
	queue       []utterance
	notify      chan struct{}
	speaking    bool
	interrupted bool   // set by Interrupt(), checked between chunks
	voice       *Voice // nil until a listing succeeds
	chunkSize   int    // chars per synthesis request, 0 = no chunking
}

// NewSynthesizer creates a speech dispatcher over engine and sink.
func NewSynthesizer(engine Engine, sink AudioSink, log *logger.Logger, opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		engine:    engine,
		sink:      sink,
		log:       log,
		notify:    make(chan struct{}, 1),
		chunkSize: 200,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewAudioCache("", false, log)
	}
	return s
}

// Say queues text to be spoken. Non-blocking.
func (s *Synthesizer) Say(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	s.queue = append(s.queue, utterance{text: text, queuedAt: time.Now()})
	qLen := len(s.queue)
	s.mu.Unlock()

	s.log.Debug("synth: queued (queue_len=%d): %s", qLen, truncate(text, 60))

	select {
	case s.notify <- struct{}{}:
	default: // already signaled
	}
}

// IsSpeaking reports whether audio is being synthesized or played, or
// is waiting in the queue.
func (s *Synthesizer) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking || len(s.queue) > 0
}

// Interrupt stops the current playback and clears the queue. The
// listening controller calls it on every start gesture.
func (s *Synthesizer) Interrupt() {
	s.mu.Lock()
	s.queue = s.queue[:0]
	s.interrupted = true
	s.mu.Unlock()

	s.sink.Stop()
	s.log.Debug("synth: interrupted, queue cleared")
}

// Voice returns the resolved voice, if any.
func (s *Synthesizer) Voice() (Voice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voice == nil {
		return Voice{}, false
	}
	return *s.voice, true
}

// Start begins the processing goroutine. Non-blocking.
func (s *Synthesizer) Start(ctx context.Context) {
	go s.processLoop(ctx)
	s.log.Info("synthesizer started")
}

func (s *Synthesizer) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.log.Info("synthesizer stopped")
			return
		case <-s.notify:
			s.drain(ctx)
		}
	}
}

// drain speaks queued utterances until the queue is empty.
func (s *Synthesizer) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		s.interrupted = false
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		item := s.queue[0]
		s.queue = s.queue[1:]
		s.speaking = true
		s.mu.Unlock()

		s.speak(ctx, item)

		s.mu.Lock()
		s.speaking = false
		s.mu.Unlock()
	}
}

// resolveVoice returns the cached voice or lists and selects one.
func (s *Synthesizer) resolveVoice(ctx context.Context) (Voice, error) {
	if v, ok := s.Voice(); ok {
		return v, nil
	}

	voices, err := s.engine.Voices(ctx)
	if err != nil {
		return Voice{}, err
	}
	v, ok := SelectVoice(voices)
	if !ok {
		return Voice{}, ErrNoVoice
	}

	s.mu.Lock()
	s.voice = &v
	s.mu.Unlock()
	s.log.Info("synth: using voice %s (%s) of %d", v.Name, v.ID, len(voices))
	return v, nil
}

func (s *Synthesizer) speak(ctx context.Context, u utterance) {
	s.log.Debug("synth: speaking (waited=%s): %s",
		time.Since(u.queuedAt).Round(time.Millisecond), truncate(u.text, 60))

	voice, err := s.resolveVoice(ctx)
	if err != nil {
		s.log.Error("synth: voice selection failed: %v", err)
		return
	}

	chunks := s.splitChunks(u.text)
	if len(chunks) > 1 {
		s.log.Debug("synth: split into %d chunks for parallel synthesis", len(chunks))
	}

	type result struct {
		idx   int
		audio []byte
		err   error
	}
	results := make(chan result, len(chunks))
	for i, chunk := range chunks {
		go func(idx int, text string) {
			audio, err := s.synthesizeWithCache(ctx, voice, text)
			results <- result{idx: idx, audio: audio, err: err}
		}(i, chunk)
	}

	slots := make([][]byte, len(chunks))
	for range chunks {
		r := <-results
		if r.err != nil {
			s.log.Error("synth: chunk %d synthesis failed: %v", r.idx, r.err)
			continue
		}
		slots[r.idx] = r.audio
	}

	for i, audio := range slots {
		if audio == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		abort := s.interrupted
		s.mu.Unlock()
		if abort {
			s.log.Debug("synth: aborting playback (interrupted)")
			return
		}
		if err := s.sink.Play(audio); err != nil {
			s.log.Error("synth: chunk %d playback failed: %v", i, err)
		}
	}
}

func (s *Synthesizer) synthesizeWithCache(ctx context.Context, voice Voice, text string) ([]byte, error) {
	if audio, ok := s.cache.Get(voice.ID, text); ok {
		return audio, nil
	}
	audio, err := s.engine.Synthesize(ctx, voice, text)
	if err != nil {
		return nil, err
	}
	s.cache.Put(voice.ID, text, audio)
	return audio, nil
}

// splitChunks breaks text into sentence-boundary chunks of roughly
// chunkSize characters.
func (s *Synthesizer) splitChunks(text string) []string {
	if s.chunkSize <= 0 || len(text) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+len(sentence) > s.chunkSize {
			if c := strings.TrimSpace(current.String()); c != "" {
				chunks = append(chunks, c)
			}
			current.Reset()
		}
		current.WriteString(sentence)
	}
	if c := strings.TrimSpace(current.String()); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

// splitSentences splits text at . ! ? keeping the punctuation and any
// trailing whitespace with the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
				current.WriteRune(runes[i])
			}
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
