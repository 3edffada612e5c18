package action

import (
	"context"
	"strings"
)

// Layouts for spoken times and dates.
const (
	TimeLayout = "03:04 PM"
	DateLayout = "Mon Jan 02 2006"
)

// Time tells the current wall-clock time.
type Time struct {
	Deps
}

// Handle displays and speaks the time.
func (h *Time) Handle(ctx context.Context, _ string) error {
	h.respond("The current time is " + h.now().Format(TimeLayout))
	return nil
}

// Date answers today/tomorrow/yesterday questions. It displays the
// answer without speaking it.
type Date struct {
	Deps
}

// Handle resolves the day offset from the transcript. A transcript with
// none of the three day words is answered with today.
func (h *Date) Handle(ctx context.Context, transcript string) error {
	now := h.now()
	var msg string
	switch {
	case strings.Contains(transcript, "today"):
		msg = "Today's date is " + now.Format(DateLayout)
	case strings.Contains(transcript, "tomorrow"):
		msg = "Tomorrow's date will be " + now.AddDate(0, 0, 1).Format(DateLayout)
	case strings.Contains(transcript, "yesterday"):
		msg = "Yesterday's date was " + now.AddDate(0, 0, -1).Format(DateLayout)
	default:
		h.Log.Debug("date: no day word in %q, answering with today", transcript)
		msg = "Today's date is " + now.Format(DateLayout)
	}
	h.Display.ShowText(msg)
	return nil
}
