// Package domain defines the core types and interfaces for the voice assistant.
// All other packages depend on domain; domain depends on nothing.
package domain

// Action identifies which canned handler a transcript is routed to.
type Action int

const (
	ActionUnknown Action = iota
	ActionPlay
	ActionTime
	ActionDate
	ActionJoke
	ActionWeather
	ActionFunFact
	ActionNews
	ActionCapture
	ActionSearch
)

// String returns a human-readable action name.
func (a Action) String() string {
	switch a {
	case ActionPlay:
		return "play"
	case ActionTime:
		return "time"
	case ActionDate:
		return "date"
	case ActionJoke:
		return "joke"
	case ActionWeather:
		return "weather"
	case ActionFunFact:
		return "fun_fact"
	case ActionNews:
		return "news"
	case ActionCapture:
		return "capture"
	case ActionSearch:
		return "search"
	default:
		return "unknown"
	}
}

// EventKind tells what a recognizer observed during a session.
type EventKind int

const (
	// EventResult carries a final transcript.
	EventResult EventKind = iota
	// EventSpeechEnd means the session ended without a transcript.
	EventSpeechEnd
	// EventCaptured means recording is over and the audio is being
	// transcribed. A Result or SpeechEnd event follows.
	EventCaptured
)

// String returns a human-readable event kind.
func (k EventKind) String() string {
	switch k {
	case EventResult:
		return "result"
	case EventSpeechEnd:
		return "speech_end"
	case EventCaptured:
		return "captured"
	default:
		return "unknown"
	}
}

// RecognitionEvent is reported by a recognition session. Every session
// ends with exactly one Result or SpeechEnd.
type RecognitionEvent struct {
	Kind       EventKind
	Transcript string // lowercased, only set for EventResult
}
