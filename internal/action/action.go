// Package action implements the canned command handlers. Each handler is
// stateless: it reads the transcript, does one thing, and reports the
// outcome through the shared display and the speaker.
package action

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hammamikhairi/ottovoice/internal/command"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Deps are the collaborators every handler writes its outcome to.
type Deps struct {
	Display domain.Display
	Speaker domain.Speaker
	Log     *logger.Logger
	Now     func() time.Time // defaults to time.Now
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// respond shows text and speaks it.
func (d Deps) respond(text string) {
	d.Display.ShowText(text)
	d.Speaker.Say(text)
}

// JSONGetter fetches a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string) (gjson.Result, error)
}

// Compile-time interface checks.
var (
	_ command.Handler = (*Time)(nil)
	_ command.Handler = (*Date)(nil)
	_ command.Handler = (*Joke)(nil)
	_ command.Handler = (*Weather)(nil)
	_ command.Handler = (*Unavailable)(nil)
	_ command.Handler = (*Capture)(nil)
	_ command.Handler = (*Search)(nil)
	_ command.Handler = (*Play)(nil)
)
