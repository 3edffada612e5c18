package display

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/hammamikhairi/ottovoice/internal/domain"
)

// Compile-time interface check.
var _ domain.Display = (*Surface)(nil)

// Snapshot is an immutable copy of what the surface currently shows.
type Snapshot struct {
	Content string `json:"content"`         // text or <img> markup
	Image   string `json:"image,omitempty"` // data URI when Content is an image
	Preview bool   `json:"preview"`
	Version uint64 `json:"version"`
}

// IsImage reports whether the surface is showing a captured image.
func (s Snapshot) IsImage() bool { return s.Image != "" }

// Surface is the single output region shared by every handler.
// Each write replaces the previous content. Safe for concurrent use.
type Surface struct {
	mu     sync.Mutex
	snap   Snapshot
	subsMu sync.RWMutex
	subs   []func(Snapshot)
}

// NewSurface creates a surface showing the initial prompt.
func NewSurface(initial string) *Surface {
	return &Surface{snap: Snapshot{Content: initial}}
}

// Subscribe registers fn to be called with every new snapshot.
func (s *Surface) Subscribe(fn func(Snapshot)) {
	s.subsMu.Lock()
	s.subs = append(s.subs, fn)
	s.subsMu.Unlock()
}

// ShowText replaces the content with plain text.
func (s *Surface) ShowText(text string) {
	s.update(func(snap *Snapshot) {
		snap.Content = text
		snap.Image = ""
	})
}

// ShowImage replaces the content with an embedded image.
func (s *Surface) ShowImage(dataURI, alt string) {
	s.update(func(snap *Snapshot) {
		snap.Content = fmt.Sprintf(`<img src="%s" alt="%s"/>`, dataURI, html.EscapeString(alt))
		snap.Image = dataURI
	})
}

// ShowPreview toggles the live camera preview.
func (s *Surface) ShowPreview(on bool) {
	s.update(func(snap *Snapshot) {
		snap.Preview = on
	})
}

// Snapshot returns the current state.
func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Text returns the current content.
func (s *Surface) Text() string {
	return s.Snapshot().Content
}

func (s *Surface) update(apply func(*Snapshot)) {
	s.mu.Lock()
	apply(&s.snap)
	s.snap.Version++
	snap := s.snap
	s.mu.Unlock()

	s.subsMu.RLock()
	subs := s.subs
	s.subsMu.RUnlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// imageSize returns the decoded payload size of a base64 data URI.
func imageSize(dataURI string) int {
	i := strings.IndexByte(dataURI, ',')
	if i < 0 {
		return 0
	}
	return len(dataURI[i+1:]) * 3 / 4
}
