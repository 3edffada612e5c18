// Package display provides the response renderer: a shared [Surface]
// that handlers write into, a terminal UI that renders it using Bubble
// Tea, and an optional websocket [Mirror] for viewing it in a browser.
//
// The UI draws the surface in a fixed output region above an input
// prompt. Pressing Enter on an empty prompt is the start gesture; any
// other line is submitted as a typed command.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	listeningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Bold(true)

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// Output region: soft sky blue, boxed.
	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#52525b")).
			Padding(0, 1)

	imageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// ── UI ───────────────────────────────────────────────────────────

// StatusFunc reports whether a recognition session is active.
type StatusFunc func() bool

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program   *tea.Program
	surface   *Surface
	listening StatusFunc
	hint      string
	inputCh   chan string
	readyCh   chan struct{}
	quitCh    chan struct{}
	done      atomic.Bool
}

// NewUI creates the display for the given surface. listening may be nil.
func NewUI(surface *Surface, listening StatusFunc, hint string) *UI {
	if listening == nil {
		listening = func() bool { return false }
	}
	u := &UI{
		surface:   surface,
		listening: listening,
		hint:      hint,
		inputCh:   make(chan string, 16),
		readyCh:   make(chan struct{}),
		quitCh:    make(chan struct{}),
	}
	surface.Subscribe(func(s Snapshot) {
		if u.program != nil && !u.done.Load() {
			u.program.Send(snapshotMsg(s))
		}
	})
	return u
}

// InputChan returns submitted prompt lines. An empty line is the start gesture.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Println prints a line into the scrollback above the UI. Thread-safe.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: styled prompts break textinput's width math.
	ti.Prompt = "otto> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Placeholder = "press enter to talk, or type a command"
	ti.Focus()
	ti.CharLimit = 300
	ti.Width = 60

	m := model{
		snap:      u.surface.Snapshot(),
		listening: u.listening,
		hint:      u.hint,
		input:     ti,
		inputCh:   u.inputCh,
		readyCh:   u.readyCh,
		echoFn: func(v string) {
			u.Println(promptStyle.Render("you") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(v))
		},
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	snap      Snapshot
	listening StatusFunc
	active    bool
	hint      string
	input     textinput.Model
	inputCh   chan<- string
	readyCh   chan struct{}
	echoFn    func(string)
	width     int
}

// Messages.
type (
	tickMsg     time.Time
	snapshotMsg Snapshot
)

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			m.inputCh <- v
			if v == "" {
				return m, nil
			}
			echoFn := m.echoFn
			return m, func() tea.Msg {
				echoFn(v)
				return nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		const promptLen = 6
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil

	case snapshotMsg:
		// Subscribers run outside the surface lock, so snapshots can
		// arrive out of order. Keep the newest.
		if msg.Version > m.snap.Version {
			m.snap = Snapshot(msg)
		}
		return m, nil

	case tickMsg:
		m.active = m.listening()
		title := "ottovoice"
		if m.active {
			title = "ottovoice (listening)"
		}
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(title))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.renderBar())
	b.WriteByte('\n')

	w := m.width
	if w <= 4 {
		w = 80
	}
	b.WriteString(outputStyle.Width(w - 2).Render(m.renderContent()))
	b.WriteByte('\n')

	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderContent() string {
	if m.snap.IsImage() {
		return imageStyle.Render(fmt.Sprintf("[Captured Image] %d KB PNG", (imageSize(m.snap.Image)+1023)/1024))
	}
	return m.snap.Content
}

func (m model) renderBar() string {
	var parts []string
	if m.active {
		parts = append(parts, listeningStyle.Render("● listening"))
	} else {
		parts = append(parts, secondaryStyle.Render("○ idle"))
	}
	if m.snap.Preview {
		parts = append(parts, previewStyle.Render("camera live"))
	}
	if m.hint != "" {
		parts = append(parts, secondaryStyle.Render(m.hint))
	}

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(" " + strings.Join(parts, "  │  ") + " ")
}
