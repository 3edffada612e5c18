// Package speech provides text-to-speech output and speech-to-text input.
//
// Output flows through a [Synthesizer]: queued text is rendered by an
// [Engine] (Azure or espeak-ng), cached in an [AudioCache] and played by
// a [Player]. Input comes from a recognizer that emits one
// domain.RecognitionEvent per session.
package speech

import (
	"context"
	"strings"
)

// Voice is one synthesis voice offered by an engine.
type Voice struct {
	ID     string // engine-specific identifier passed back to Synthesize
	Name   string // human-readable name, used for selection
	Locale string
}

// Engine renders text to WAV audio.
type Engine interface {
	// Voices lists the voices available for synthesis. The list may be
	// empty while the engine is still warming up.
	Voices(ctx context.Context) ([]Voice, error)
	// Synthesize renders text with voice and returns WAV bytes.
	Synthesize(ctx context.Context, voice Voice, text string) ([]byte, error)
}

// AudioSink plays WAV audio. Play blocks until playback finishes or
// Stop is called.
type AudioSink interface {
	Play(wav []byte) error
	Stop()
}

// SelectVoice returns the first voice whose name contains "female"
// (case-insensitive), else the first voice. It returns false for an
// empty list.
func SelectVoice(voices []Voice) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	for _, v := range voices {
		if strings.Contains(strings.ToLower(v.Name), "female") {
			return v, true
		}
	}
	return voices[0], true
}
