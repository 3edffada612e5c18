package domain

import (
	"context"
	"image"
)

// Display is the single output surface. Every write replaces what was
// shown before; the last writer wins.
type Display interface {
	ShowText(text string)
	ShowImage(dataURI, alt string)
	ShowPreview(on bool)
}

// Speaker turns text into audible speech. Say must not block on playback.
type Speaker interface {
	Say(text string)
}

// Recognizer drives a speech recognition engine. Start begins one session;
// the session ends with exactly one Result or SpeechEnd event unless Stop
// aborts it before its audio was captured. Audio that was already captured
// is still transcribed and reported.
type Recognizer interface {
	Start(ctx context.Context) error
	Stop()
	Events() <-chan RecognitionEvent
}

// Camera grants access to a video device.
// Implementations return ErrNoCamera or ErrPermissionDenied from Open.
type Camera interface {
	Open(ctx context.Context) (CameraStream, error)
}

// CameraStream is an open camera. Close releases the device.
type CameraStream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(url string) error
}
