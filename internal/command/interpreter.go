// Package command maps transcripts to actions and dispatches them to
// their handlers.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// MsgUnrecognized is shown when no rule matches a transcript.
const MsgUnrecognized = "Sorry, I didn't understand the command."

// Handler performs one action for a transcript.
type Handler interface {
	Handle(ctx context.Context, transcript string) error
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(ctx context.Context, transcript string) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, transcript string) error {
	return f(ctx, transcript)
}

type rule struct {
	keyword string
	action  domain.Action
}

// rules are tested in order; the first keyword contained in the
// transcript wins.
var rules = []rule{
	{"play", domain.ActionPlay},
	{"time", domain.ActionTime},
	{"date", domain.ActionDate},
	{"joke", domain.ActionJoke},
	{"weather", domain.ActionWeather},
	{"fun fact", domain.ActionFunFact},
	{"news", domain.ActionNews},
	{"capture", domain.ActionCapture},
	{"search", domain.ActionSearch},
}

// Interpreter dispatches transcripts by substring match.
type Interpreter struct {
	display  domain.Display
	log      *logger.Logger
	handlers map[domain.Action]Handler
}

// New creates an interpreter that reports unrecognized commands on display.
func New(display domain.Display, log *logger.Logger) *Interpreter {
	return &Interpreter{
		display:  display,
		log:      log,
		handlers: make(map[domain.Action]Handler),
	}
}

// Bind attaches h to action, replacing any previous handler.
func (i *Interpreter) Bind(action domain.Action, h Handler) {
	i.handlers[action] = h
}

// Match returns the action for a transcript. Matching is on raw
// substrings, so "playtime" is a play command.
func (i *Interpreter) Match(transcript string) domain.Action {
	t := strings.ToLower(transcript)
	for _, r := range rules {
		if strings.Contains(t, r.keyword) {
			return r.action
		}
	}
	return domain.ActionUnknown
}

// Dispatch invokes exactly one handler for the transcript. It returns
// the matched action and the handler's error, if any.
func (i *Interpreter) Dispatch(ctx context.Context, transcript string) (domain.Action, error) {
	action := i.Match(transcript)
	if action == domain.ActionUnknown {
		i.log.Debug("no rule matched %q", transcript)
		i.display.ShowText(MsgUnrecognized)
		return action, nil
	}

	h, ok := i.handlers[action]
	if !ok {
		return action, fmt.Errorf("%s: %w", action, domain.ErrNotImplemented)
	}

	i.log.Debug("dispatching %q to %s", transcript, action)
	if err := h.Handle(ctx, strings.ToLower(transcript)); err != nil {
		return action, fmt.Errorf("%s: %w", action, err)
	}
	return action, nil
}
