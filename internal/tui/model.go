// Package tui provides the Bubble Tea front-end for a single player.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"careerquest-service/internal/app"
	"careerquest-service/internal/domain"
	"careerquest-service/internal/generator"
)

// Player is the orchestrator surface the UI drives.
type Player interface {
	Greeting() string
	Snapshot() app.Snapshot
	Choose(ctx context.Context, req app.ChooseRequest) error
	Select(option int) error
	Submit() error
	Advance() error
	Exit() error
	Continue() error
}

// Options fixes the round parameters chosen on the command line.
type Options struct {
	Difficulty domain.Difficulty
	Language   string
	Set        int
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#40A9FF")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3A3A3A")).
			Padding(0, 1)
)

// Model implements tea.Model over one player.
type Model struct {
	ctx     context.Context
	player  Player
	bridge  *Bridge
	domains []domain.Domain
	opts    Options

	cursor int
	snap   app.Snapshot
	err    string

	width    int
	height   int
	viewport viewport.Model
}

func NewModel(ctx context.Context, player Player, bridge *Bridge, domains []domain.Domain, opts Options) *Model {
	if opts.Language == "" {
		opts.Language = domain.DefaultLanguage
	}
	m := &Model{
		ctx:      ctx,
		player:   player,
		bridge:   bridge,
		domains:  domains,
		opts:     opts,
		snap:     player.Snapshot(),
		viewport: viewport.New(80, 20),
	}
	m.refreshContent()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.bridge.wait()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.refreshContent()
		return m, nil
	case snapshotMsg:
		m.snap = m.player.Snapshot()
		m.refreshContent()
		return m, m.bridge.wait()
	case attentionMsg:
		m.snap = m.player.Snapshot()
		m.refreshContent()
		m.viewport.GotoTop()
		return m, m.bridge.wait()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.err = ""
		cmd := m.handleKey(msg)
		m.snap = m.player.Snapshot()
		m.refreshContent()
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch m.snap.Stage {
	case app.StageDomainSelection:
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.domains)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.domains) == 0 {
				return nil
			}
			m.report(m.player.Choose(m.ctx, app.ChooseRequest{
				DomainID:   m.domains[m.cursor].ID,
				Difficulty: m.opts.Difficulty,
				Language:   m.opts.Language,
				Set:        m.opts.Set,
			}))
		case "q":
			return tea.Quit
		}
	case app.StageLoading:
		if key == "esc" {
			m.report(m.player.Exit())
		}
	case app.StageQuiz:
		switch key {
		case "1", "2", "3", "4":
			m.report(m.player.Select(int(key[0] - '1')))
		case "enter":
			if m.snap.Quiz != nil && m.snap.Quiz.CorrectIndex != nil {
				m.report(m.player.Advance())
			} else {
				m.report(m.player.Submit())
			}
		case "n":
			m.report(m.player.Advance())
		case "esc":
			m.report(m.player.Exit())
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
	case app.StageResults:
		switch key {
		case "enter", "esc":
			m.report(m.player.Continue())
		case "q":
			return tea.Quit
		}
	}
	return nil
}

func (m *Model) report(err error) {
	if err != nil {
		m.err = err.Error()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	header := titleStyle.Render("CareerQuest") + "  " + mutedStyle.Render(m.player.Greeting())
	lines := []string{header, m.viewport.View()}
	if m.err != "" {
		lines = append(lines, wrongStyle.Render(m.err))
	}
	lines = append(lines, footerStyle.Render(m.footer()))
	return strings.Join(lines, "\n")
}

func (m *Model) refreshContent() {
	var body string
	switch m.snap.Stage {
	case app.StageDomainSelection:
		body = m.renderDomains()
	case app.StageLoading:
		body = fmt.Sprintf("Preparing %s questions for %s (set %d, %s)...",
			m.snap.Difficulty, m.snap.DomainName, m.snap.Set, generator.SetLabel(m.snap.Set))
	case app.StageQuiz:
		body = m.renderQuiz()
	case app.StageResults:
		body = m.renderResults()
	}
	m.viewport.SetContent(body)
}

func (m *Model) renderDomains() string {
	var b strings.Builder
	if m.snap.Notice != "" {
		b.WriteString(wrongStyle.Render(m.snap.Notice))
		b.WriteString("\n\n")
	}
	b.WriteString("Choose a department:\n\n")
	for i, d := range m.domains {
		line := fmt.Sprintf("  %s  %s", d.DisplayName(m.opts.Language), mutedStyle.Render("["+string(d.Category)+"]"))
		if i == m.cursor {
			line = cursorStyle.Render("> " + d.DisplayName(m.opts.Language))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderQuiz() string {
	q := m.snap.Quiz
	if q == nil {
		return ""
	}
	var b strings.Builder
	status := fmt.Sprintf("%s  Question %d/%d  Lives %s  Points %d",
		m.snap.DomainName, q.Index+1, q.Total, strings.Repeat("♥", q.Lives), q.Points)
	b.WriteString(mutedStyle.Render(status))
	b.WriteString("\n\n")
	if q.Scenario != "" {
		b.WriteString(cardStyle.Render(q.Scenario))
		b.WriteString("\n\n")
	}
	b.WriteString(q.Text)
	b.WriteString("\n\n")
	for i, opt := range q.Options {
		line := fmt.Sprintf("%d. %s", i+1, opt)
		switch {
		case q.CorrectIndex != nil && i == *q.CorrectIndex:
			line = correctStyle.Render(line)
		case q.CorrectIndex != nil && i == q.Selected:
			line = wrongStyle.Render(line)
		case i == q.Selected:
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if q.CorrectIndex != nil {
		b.WriteString("\n")
		if q.Correct != nil && *q.Correct {
			b.WriteString(correctStyle.Render("Correct! " + q.MotivationalMessage))
		} else {
			b.WriteString(wrongStyle.Render("Not quite."))
		}
		b.WriteString("\n")
		b.WriteString(q.Explanation)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderResults() string {
	r := m.snap.Result
	if r == nil {
		return ""
	}
	outcome := "Set not passed yet"
	if r.Passed {
		outcome = "Set passed"
	}
	return strings.Join([]string{
		titleStyle.Render(fmt.Sprintf("%s - set %d", r.DomainName, r.Set)),
		"",
		fmt.Sprintf("Score      %d / %d", r.Score, r.Total),
		fmt.Sprintf("Accuracy   %d%%", r.Accuracy),
		fmt.Sprintf("XP         %d", r.ExperiencePoints),
		fmt.Sprintf("Result     %s", outcome),
		"",
		r.Feedback,
	}, "\n")
}

func (m *Model) footer() string {
	switch m.snap.Stage {
	case app.StageDomainSelection:
		return "↑/↓ move  enter start  q quit"
	case app.StageLoading:
		return "esc cancel"
	case app.StageQuiz:
		return "1-4 choose  enter submit/next  esc exit"
	case app.StageResults:
		return "enter continue  q quit"
	}
	return ""
}
