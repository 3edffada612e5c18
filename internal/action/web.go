package action

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hammamikhairi/ottovoice/internal/domain"
)

// Default URL bases.
const (
	GoogleSearchURL  = "https://www.google.com/search"
	YouTubeSearchURL = "https://www.youtube.com/results"
)

// stripKeyword removes the first occurrence of keyword and trims the rest.
func stripKeyword(transcript, keyword string) string {
	return strings.TrimSpace(strings.Replace(transcript, keyword, "", 1))
}

func buildURL(base, param, value string) string {
	return base + "?" + url.Values{param: {value}}.Encode()
}

// Search opens a web search for the words after "search".
type Search struct {
	Deps
	Opener domain.Opener
	Base   string // defaults to GoogleSearchURL
}

// Handle opens the search results page. Nothing is displayed.
func (h *Search) Handle(ctx context.Context, transcript string) error {
	base := h.Base
	if base == "" {
		base = GoogleSearchURL
	}
	query := stripKeyword(transcript, "search")
	if err := h.Opener.Open(buildURL(base, "q", query)); err != nil {
		return fmt.Errorf("open search: %w", err)
	}
	h.Log.Debug("search: opened results for %q", query)
	return nil
}

// Play opens a video search for the words after "play".
type Play struct {
	Deps
	Opener domain.Opener
	Base   string // defaults to YouTubeSearchURL
}

// Handle opens the video results and confirms on the display.
func (h *Play) Handle(ctx context.Context, transcript string) error {
	base := h.Base
	if base == "" {
		base = YouTubeSearchURL
	}
	song := stripKeyword(transcript, "play")
	if err := h.Opener.Open(buildURL(base, "search_query", song)); err != nil {
		return fmt.Errorf("open video search: %w", err)
	}
	h.Display.ShowText(fmt.Sprintf("Playing %s on YouTube", song))
	return nil
}
