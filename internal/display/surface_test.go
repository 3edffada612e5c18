package display

import (
	"strings"
	"sync"
	"testing"
)

func TestSurfaceLastWriterWins(t *testing.T) {
	s := NewSurface("Say something...")

	s.ShowText("You said: hello")
	s.ShowImage("data:image/png;base64,AAAA", "Captured Image")

	snap := s.Snapshot()
	if !snap.IsImage() {
		t.Fatal("expected image content")
	}
	if snap.Content != `<img src="data:image/png;base64,AAAA" alt="Captured Image"/>` {
		t.Fatalf("unexpected markup %q", snap.Content)
	}

	s.ShowText("The current time is 09:15 AM")
	snap = s.Snapshot()
	if snap.IsImage() {
		t.Fatal("text write should clear the image")
	}
	if snap.Content != "The current time is 09:15 AM" {
		t.Fatalf("got %q", snap.Content)
	}
	if snap.Version != 3 {
		t.Fatalf("expected version 3, got %d", snap.Version)
	}
}

func TestSurfacePreviewKeepsContent(t *testing.T) {
	s := NewSurface("You said: capture")
	s.ShowPreview(true)

	snap := s.Snapshot()
	if !snap.Preview {
		t.Fatal("expected preview on")
	}
	if snap.Content != "You said: capture" {
		t.Fatalf("preview toggle changed content: %q", snap.Content)
	}
}

func TestSurfaceSubscribers(t *testing.T) {
	s := NewSurface("")

	var mu sync.Mutex
	var seen []string
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap.Content)
		mu.Unlock()
	})

	s.ShowText("one")
	s.ShowText("two")

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(seen, ",") != "one,two" {
		t.Fatalf("subscriber saw %v", seen)
	}
}

func TestImageSize(t *testing.T) {
	if got := imageSize("data:image/png;base64,AAAAAAAA"); got != 6 {
		t.Fatalf("imageSize = %d, want 6", got)
	}
	if got := imageSize("garbage"); got != 0 {
		t.Fatalf("imageSize = %d, want 0", got)
	}
}
