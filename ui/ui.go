// Package ui provides the terminal front end: the document is rendered with
// the sentence being spoken and the word under the highlight clock marked,
// and key presses drive the playback controller.
package ui

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/fastrizwaan/readaloud/tts"
)

var (
	sentenceStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "235", Dark: "252"})
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "245", Dark: "241"})
	wordStyle     = lipgloss.NewStyle().Reverse(true).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "246"})
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Notifier forwards playback events onto the bubbletea program loop, which
// is the UI's single execution context. Events arriving before the program
// is attached are queued so none are lost during startup.
type Notifier struct {
	mu      sync.Mutex
	program *tea.Program
	backlog []tts.Msg
}

func NewNotifier() *Notifier { return &Notifier{} }

// Attach binds the notifier to a running program and flushes queued events.
func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	n.program = p
	backlog := n.backlog
	n.backlog = nil
	n.mu.Unlock()
	for _, msg := range backlog {
		p.Send(msg)
	}
}

// Notify implements tts.Notifier. Safe to call from any goroutine.
func (n *Notifier) Notify(msg tts.Msg) {
	n.mu.Lock()
	p := n.program
	if p == nil {
		n.backlog = append(n.backlog, msg)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	p.Send(msg)
}

// Model is the bubbletea model for a reading session.
type Model struct {
	ctrl  *tts.Controller
	text  string
	units []tts.SentenceUnit

	width    int
	height   int
	sentence int // 1-based, 0 before playback starts
	word     int // 0-based within the current sentence, -1 for none
	total    int
	state    tts.StateType
	status   string
	err      error
	finished bool
}

// NewModel builds the model. units must come from the same segmenter
// configuration the controller uses, so indices line up.
func NewModel(ctrl *tts.Controller, text string, units []tts.SentenceUnit) Model {
	return Model{
		ctrl:  ctrl,
		text:  text,
		units: units,
		word:  -1,
		total: len(units),
		state: tts.StateIdle,
	}
}

// NewProgram wires a model into a program and attaches the notifier.
func NewProgram(ctrl *tts.Controller, notifier *Notifier, text string, units []tts.SentenceUnit) *tea.Program {
	p := tea.NewProgram(NewModel(ctrl, text, units), tea.WithAltScreen())
	notifier.Attach(p)
	return p
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		if err := m.ctrl.Play(m.text); err != nil {
			return tts.ErrorMsg{Err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.ctrl.Stop()
			return m, tea.Quit
		case " ":
			m.ctrl.PauseToggle()
		case "right", "l":
			m.ctrl.SeekRelative(1)
		case "left", "h":
			m.ctrl.SeekRelative(-1)
		case "r":
			m.finished = false
			m.err = nil
			m.word = -1
			return m, func() tea.Msg {
				if err := m.ctrl.Play(m.text); err != nil {
					return tts.ErrorMsg{Err: err}
				}
				return nil
			}
		}

	case tts.SentenceStartMsg:
		m.sentence = msg.Index
		m.total = msg.Total
		m.word = -1
		m.status = ""

	case tts.WordHighlightMsg:
		if msg.Sentence == m.sentence {
			m.word = msg.Word
		}

	case tts.StateChangedMsg:
		m.state = msg.State

	case tts.StatusMsg:
		m.status = msg.Text

	case tts.FinishedMsg:
		m.finished = true
		m.word = -1

	case tts.ErrorMsg:
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.renderDocument())
	b.WriteString("\n\n")
	b.WriteString(m.statusBar())

	return wordwrap.String(b.String(), width)
}

// renderDocument shows every sentence, dimming those not being spoken. The
// current sentence is rendered in its spoken form so word highlights line up
// with what the engine actually says.
func (m Model) renderDocument() string {
	if len(m.units) == 0 {
		return dimStyle.Render("(nothing to read)")
	}
	parts := make([]string, 0, len(m.units))
	for _, u := range m.units {
		if u.Index == m.sentence && !m.finished {
			parts = append(parts, m.renderCurrent(u))
			continue
		}
		parts = append(parts, dimStyle.Render(m.text[u.SourceStart:u.SourceEnd]))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderCurrent(u tts.SentenceUnit) string {
	words := make([]string, len(u.Words))
	for i, w := range u.Words {
		if i == m.word {
			words[i] = wordStyle.Render(w)
		} else {
			words[i] = sentenceStyle.Render(w)
		}
	}
	return strings.Join(words, " ")
}

func (m Model) statusBar() string {
	if m.err != nil {
		return errStyle.Render("error: "+m.err.Error()) + barStyle.Render("  •  q quit")
	}

	var state string
	switch {
	case m.finished:
		state = "finished"
	default:
		state = m.state.String()
	}

	bar := barStyle.Render(fmt.Sprintf("%s  •  sentence %d/%d", state, m.sentence, m.total))
	if m.status != "" {
		bar += statusStyle.Render("  •  " + m.status)
	}
	bar += barStyle.Render("  •  space pause  ←/→ seek  r restart  q quit")
	return bar
}
