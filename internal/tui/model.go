package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/report"
)

// sidebarWidth is the width of the summary panel when it is shown.
const sidebarWidth = 44

// ============================================================================
// Model
// ============================================================================

// Model is the chat screen for one interview session.
//
// The session is only read inside Update after a ReplyMsg arrives, never while
// a RespondCmd is in flight. View renders from the cached copies. Callers must
// call Close after the program exits and before touching the session.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	inflight *sync.WaitGroup
	ctl      *interview.Controller
	session *interview.Session
	keys    KeyMap

	input      textinput.Model
	transcript viewport.Model
	spinner    spinner.Model

	turns   []interview.Turn
	summary *report.Report
	pending string // utterance awaiting a reply

	waiting     bool
	finished    bool
	showSummary bool
	warning     string
	err         error

	width  int
	height int
	ready  bool
}

// NewModel creates the chat model for s.
func NewModel(ctx context.Context, ctl *interview.Controller, s *interview.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your answer..."
	ti.CharLimit = 2000
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = DimStyle

	ctx, cancel := context.WithCancel(ctx)
	m := Model{
		ctx:         ctx,
		cancel:      cancel,
		inflight:    &sync.WaitGroup{},
		ctl:         ctl,
		session:     s,
		keys:        DefaultKeyMap,
		input:       ti,
		spinner:     sp,
		showSummary: true,
	}
	m.snapshot()
	return m
}

// Init returns the initial command for the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Close cancels any pending turn and waits for it to return, so the session
// has no other writer afterwards. It is safe to call more than once.
func (m Model) Close() {
	m.cancel()
	m.inflight.Wait()
}

// Session returns the session the model drives.
func (m Model) Session() *interview.Session {
	return m.session
}

// Finished reports whether the interview reached its closing message.
func (m Model) Finished() bool {
	return m.finished
}

// Update handles messages for the chat screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyMsg:
		return m.handleReply(msg), nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Quit):
		// Stops a running judge call; Close waits for the turn to unwind.
		m.cancel()
		return m, tea.Quit

	case keyMatches(msg, m.keys.Summary):
		m.showSummary = !m.showSummary
		m.layout()
		return m, nil

	case keyMatches(msg, m.keys.PageUp), keyMatches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd

	case keyMatches(msg, m.keys.Send):
		if m.waiting || m.finished {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.pending = text
		m.waiting = true
		m.warning = ""
		m.refresh()
		respond := RespondCmd(m.ctx, m.ctl, m.session, text)
		m.inflight.Add(1)
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			defer m.inflight.Done()
			return respond()
		})
	}

	if m.waiting || m.finished {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleReply(msg ReplyMsg) Model {
	m.waiting = false
	m.pending = ""

	switch {
	case errors.Is(msg.Err, interview.ErrComplete):
		m.finished = true
	case msg.Err != nil:
		m.err = msg.Err
	case msg.Reply != nil:
		if msg.Reply.SaveErr != nil {
			m.warning = fmt.Sprintf("Warning: could not save session: %v", msg.Reply.SaveErr)
		}
		if msg.Reply.Complete() {
			m.finished = true
			m.showSummary = true
		}
	}

	if m.finished {
		m.input.Blur()
	}
	m.snapshot()
	m.layout()
	return m
}

// snapshot copies what View needs out of the session.
func (m *Model) snapshot() {
	m.turns = append([]interview.Turn(nil), m.session.Transcript...)
	m.summary = report.Build(m.session, m.ctl.Catalog())
	m.finished = m.finished || m.session.Complete()
}

// layout sizes the components to the current window.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	chatWidth := m.chatWidth()
	// header, input, status bar and their padding.
	chatHeight := max(m.height-6, 3)

	if !m.ready {
		m.transcript = viewport.New(chatWidth, chatHeight)
		m.ready = true
	} else {
		m.transcript.Width = chatWidth
		m.transcript.Height = chatHeight
	}
	m.input.Width = max(chatWidth-4, 10)
	m.refresh()
}

func (m Model) chatWidth() int {
	if m.showSummary && m.width > sidebarWidth*2 {
		return m.width - sidebarWidth - 1
	}
	return m.width
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.transcript.SetContent(renderTranscript(m.turns, m.pending, m.transcript.Width))
	m.transcript.GotoBottom()
}

// ============================================================================
// View
// ============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := TitleStyle.Render("Candidate Interview") + "  " + DimStyle.Render(m.summary.Progress())

	var chat strings.Builder
	chat.WriteString(m.transcript.View())
	chat.WriteString("\n")
	chat.WriteString(m.inputLine())

	body := chat.String()
	if m.showSummary && m.width > sidebarWidth*2 {
		side := BoxStyle.Width(sidebarWidth - 4).Render(renderSummary(m.summary))
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", side)
	}

	status := StatusBarStyle.Width(m.width).Render(m.statusLine())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (m Model) inputLine() string {
	switch {
	case m.finished:
		return DimStyle.Render("Interview complete. Press esc to exit.")
	case m.waiting:
		return m.spinner.View() + DimStyle.Render(" Evaluating your answer...")
	default:
		return m.input.View()
	}
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return ErrorStyle.Render("Error: " + m.err.Error())
	case m.warning != "":
		return WarningStyle.Render(m.warning)
	default:
		return m.keys.HelpLine()
	}
}

// renderTranscript formats turns as a chat log wrapped to width.
func renderTranscript(turns []interview.Turn, pending string, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-2, 10))

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(speaker(t.Role))
		b.WriteString("\n")
		b.WriteString(wrap.Render(t.Content))
		b.WriteString("\n")
	}
	if pending != "" {
		b.WriteString("\n")
		b.WriteString(speaker(interview.RoleUser))
		b.WriteString("\n")
		b.WriteString(wrap.Render(pending))
		b.WriteString("\n")
	}
	return b.String()
}

func speaker(r interview.Role) string {
	if r == interview.RoleUser {
		return UserStyle.Render("You")
	}
	return AssistantStyle.Render("Interviewer")
}

// renderSummary formats the per-topic progress panel.
func renderSummary(r *report.Report) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Interview Progress"))
	b.WriteString("\n")
	b.WriteString(progressBar(r.Completed, r.Total))
	b.WriteString("\n\n")
	for _, t := range r.Topics {
		line := report.FormatTopic(t)
		if t.Current {
			line = TitleStyle.Render(strings.TrimRight(line, "\n")) + "\n"
		}
		b.WriteString(line)
	}
	return strings.TrimRight(b.String(), "\n")
}

func progressBar(done, total int) string {
	if total <= 0 {
		return ""
	}
	return ProgressFullStyle.Render(strings.Repeat("█", done)) +
		ProgressEmptyStyle.Render(strings.Repeat("░", total-done)) +
		DimStyle.Render(fmt.Sprintf(" %d/%d", done, total))
}
