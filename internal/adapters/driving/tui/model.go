// Package tui provides an interactive terminal UI for asking questions
// against the ingested corpus.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/grounded/internal/core/domain"
	"github.com/custodia-labs/grounded/internal/core/ports/driving"
)

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	refusalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// answerMsg carries the result of an async answer call.
type answerMsg struct {
	result *domain.QueryResult
	err    error
}

// Model is the Bubble Tea model for the ask UI.
type Model struct {
	ctx      context.Context
	service  driving.AnswerService
	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
	waiting  bool
}

// New creates a new TUI model instance.
func New(ctx context.Context, service driving.AnswerService) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: vp,
		status:   "Ready. Type a question to begin.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, query box, spacer
		vh := msg.Height - reserved - ah
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query != "" && !m.waiting {
				m.waiting = true
				m.status = "Thinking..."
				return m, m.ask(query)
			}
		case "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "down":
			m.viewport.ScrollDown(1)
			return m, nil
		}

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = "Done. Ask another question."
		m.viewport.SetContent(renderResult(msg.result))
		m.viewport.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout: header, answer box, query box, status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Grounded")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

// ask runs the answer pipeline off the UI loop.
func (m Model) ask(query string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.service.Answer(m.ctx, query)
		return answerMsg{result: result, err: err}
	}
}

// renderResult formats a query result for the answer viewport.
func renderResult(result *domain.QueryResult) string {
	switch result.Outcome {
	case domain.OutcomeEmptyContext:
		return refusalStyle.Render("Nothing has been ingested yet. Add documents first.")
	case domain.OutcomeNoRelevantContent:
		return refusalStyle.Render(fmt.Sprintf(
			"No relevant content found (best similarity %.2f, threshold %.2f).",
			result.MaxSimilarity, result.Threshold))
	}

	var b strings.Builder
	b.WriteString(result.Answer)
	if len(result.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(sourceStyle.Render("Sources:"))
		for i, src := range result.Sources {
			b.WriteString("\n")
			b.WriteString(sourceStyle.Render(fmt.Sprintf("  [%d] %s (%.2f)", i+1, src.SourceID, src.Score)))
		}
	}
	return b.String()
}
