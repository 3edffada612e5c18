// Package assistant implements the listening controller: it owns the
// recognition session lifecycle and its single inactivity timer, and
// forwards recognized transcripts to the command interpreter and the
// speaker.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Display messages.
const (
	MsgListening  = "I am listening..."
	MsgPrompt     = "Say something..."
	PrefixYouSaid = "You said: "
)

// State is the recognition session state.
type State int32

const (
	StateIdle State = iota
	StateListening
)

// String returns a human-readable state name.
func (s State) String() string {
	if s == StateListening {
		return "listening"
	}
	return "idle"
}

// Dispatcher routes a transcript to exactly one action handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, transcript string) (domain.Action, error)
}

// interrupter is implemented by speakers that can cut playback short.
type interrupter interface {
	Interrupt()
}

// afterFunc arms a timer that calls f after d. The returned function
// cancels it.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures the Controller.
type Option func(*Controller)

// WithTimeout sets the inactivity timeout of a listening session.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// Controller drives the listen -> transcript -> dispatch cycle.
//
// At most one inactivity timer is outstanding. Arming a new one
// supersedes the old: a superseded timer that has already fired is
// ignored by generation check, so it can never reset a newer session.
type Controller struct {
	display  domain.Display
	rec      domain.Recognizer
	dispatch Dispatcher
	speaker  domain.Speaker
	log      *logger.Logger
	timeout  time.Duration
	after    afterFunc

	state atomic.Int32

	mu        sync.Mutex
	gen       uint64      // bumped whenever the timer is armed or cancelled
	stopTimer func() bool // nil when no timer is armed
	session   string

	handlers sync.WaitGroup
}

// New creates a controller. It fails with domain.ErrNoRecognizer when
// rec is nil: the assistant cannot work without speech input.
func New(display domain.Display, rec domain.Recognizer, dispatch Dispatcher, speaker domain.Speaker, log *logger.Logger, opts ...Option) (*Controller, error) {
	if rec == nil {
		return nil, domain.ErrNoRecognizer
	}
	c := &Controller{
		display:  display,
		rec:      rec,
		dispatch: dispatch,
		speaker:  speaker,
		log:      log,
		timeout:  5 * time.Second,
		after:    realAfterFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State reports whether a session is active. Safe to call from any
// goroutine, including UI render loops.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Listening reports whether a session is active.
func (c *Controller) Listening() bool {
	return c.State() == StateListening
}

// Start handles the user's start gesture: it silences any ongoing
// speech, shows the listening indicator, begins a recognition session
// and (re)arms the inactivity timer. Starting while already listening
// only re-arms the timer.
func (c *Controller) Start(ctx context.Context) error {
	if sp, ok := c.speaker.(interrupter); ok {
		sp.Interrupt()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.display.ShowText(MsgListening)

	if c.State() == StateIdle {
		if err := c.rec.Start(ctx); err != nil && !errors.Is(err, domain.ErrAlreadyListening) {
			c.display.ShowText(MsgPrompt)
			return err
		}
		c.session = sessionID()
		c.state.Store(int32(StateListening))
		c.log.Info("session %s: listening", c.session)
	} else {
		c.log.Debug("session %s: start while listening, re-arming timer", c.session)
	}

	c.cancelTimerLocked()
	gen := c.gen
	c.stopTimer = c.after(c.timeout, func() { c.expire(gen) })
	return nil
}

// Submit handles a transcript that did not come from the recognizer,
// such as typed input. It behaves exactly like a recognized result.
func (c *Controller) Submit(ctx context.Context, text string) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return
	}
	c.onResult(ctx, text)
}

// Run consumes recognizer events until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	events := c.rec.Events()
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.cancelTimerLocked()
			c.mu.Unlock()
			c.rec.Stop()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case domain.EventResult:
				c.onResult(ctx, ev.Transcript)
			case domain.EventSpeechEnd:
				c.onSpeechEnd()
			case domain.EventCaptured:
				c.onCaptured()
			default:
				c.log.Warn("unknown recognition event %s", ev.Kind)
			}
		}
	}
}

// Wait blocks until every dispatched handler has returned.
func (c *Controller) Wait() {
	c.handlers.Wait()
}

// onResult cancels the timer before anything else, then shows the
// transcript, dispatches it and speaks it back.
func (c *Controller) onResult(ctx context.Context, transcript string) {
	session := c.endSession()
	c.rec.Stop()

	c.log.Info("session %s: heard %q", session, transcript)
	c.display.ShowText(PrefixYouSaid + transcript)

	c.handlers.Add(1)
	go func() {
		defer c.handlers.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("handler for %q panicked: %v", transcript, r)
			}
		}()
		action, err := c.dispatch.Dispatch(ctx, transcript)
		if err != nil {
			c.log.Warn("%s failed: %v", action, err)
			return
		}
		c.log.Debug("%s handled", action)
	}()

	c.speaker.Say(transcript)
}

// onCaptured disarms the inactivity timer once the utterance is
// recorded: transcription time does not count as silence.
func (c *Controller) onCaptured() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != StateListening {
		return
	}
	c.cancelTimerLocked()
	c.log.Debug("session %s: audio captured, waiting for transcript", c.session)
}

// onSpeechEnd resets the prompt when a session ends without a transcript.
func (c *Controller) onSpeechEnd() {
	session := c.endSession()
	c.log.Info("session %s: speech ended without a command", session)
	c.display.ShowText(MsgPrompt)
	c.rec.Stop()
}

// expire fires when a session stays silent for the whole timeout.
func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.State() != StateListening {
		c.mu.Unlock()
		return
	}
	c.stopTimer = nil
	c.state.Store(int32(StateIdle))
	session := c.session
	c.display.ShowText(MsgPrompt)
	c.mu.Unlock()

	c.log.Info("session %s: timed out after %s", session, c.timeout)
	c.rec.Stop()
}

// endSession cancels the timer and returns to idle.
func (c *Controller) endSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
	c.state.Store(int32(StateIdle))
	return c.session
}

// cancelTimerLocked stops any armed timer and invalidates its
// generation. Must be called with c.mu held.
func (c *Controller) cancelTimerLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
	c.gen++
}
