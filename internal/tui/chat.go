// Package tui is the local operator front door: an interactive chat
// against a candidate's ingested program, running the same pipeline the
// public chat uses (quota, cache, retrieval, generation).
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eluia/engine/internal/chat"
	"github.com/eluia/engine/internal/rag"
)

// localCallerAddr identifies the operator's own session in the
// conversation log; it is hashed like any public caller address.
const localCallerAddr = "127.0.0.1"

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cachedTagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type message struct {
	question string
	answer   string
	cached   bool
}

type answerMsg struct {
	question string
	resp     *chat.Response
	err      error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	service  *chat.Service
	profile  *rag.AgentProfile
	input    textinput.Model
	viewport viewport.Model
	messages []message
	status   string
	ready    bool
	loading  bool
}

// New creates a chat TUI for one candidate profile.
func New(service *chat.Service, profile *rag.AgentProfile) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Posez une question sur le programme..."
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		profile:  profile,
		input:    ti,
		viewport: vp,
		status:   "Connected. Type a question and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + ih + 1 // header, input frame, status
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.loading {
				return m, nil
			}
			m.input.SetValue("")
			m.loading = true
			m.status = "Thinking..."
			return m, m.ask(question)
		}

	case answerMsg:
		m.loading = false
		if msg.err != nil {
			if msg.err == chat.ErrRateLimited {
				m.status = "Daily message limit reached. Try again tomorrow."
			} else {
				m.status = "Error: " + msg.err.Error()
			}
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		}
		m.messages = append(m.messages, message{
			question: msg.question,
			answer:   msg.resp.Answer,
			cached:   msg.resp.Cached,
		})
		m.status = fmt.Sprintf("%d messages remaining today", msg.resp.Remaining)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("%s — %s", m.profile.AgentName, m.profile.Name))
	transcript := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) ask(question string) tea.Cmd {
	service, profile := m.service, m.profile
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		resp, err := service.Ask(ctx, profile, question, localCallerAddr)
		return answerMsg{question: question, resp: resp, err: err}
	}
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 {
		return "No messages yet."
	}
	var lines []string
	for _, msg := range m.messages {
		lines = append(lines, questionStyle.Render("You: ")+msg.question)
		answer := answerStyle.Render(msg.answer)
		if msg.cached {
			answer += " " + cachedTagStyle.Render("(cached)")
		}
		lines = append(lines, answerStyle.Render(m.profile.AgentName+": ")+answer)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
