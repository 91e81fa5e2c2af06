package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyscores/internal/ui/theme"
)

// PromptSubmitMsg is sent when the prompt is confirmed with a non-empty value
type PromptSubmitMsg struct {
	Purpose string
	Value   string
}

// ClosePromptMsg is sent when the prompt is dismissed
type ClosePromptMsg struct{}

// PromptInput is a one-line input box, used for naming saved views
type PromptInput struct {
	Input   textinput.Model
	Title   string
	Purpose string
	Theme   theme.Theme
	Width   int
}

// NewPromptInput creates a new prompt input
func NewPromptInput(th theme.Theme) *PromptInput {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 40

	return &PromptInput{
		Input: ti,
		Theme: th,
		Width: 60,
	}
}

// Open focuses the prompt for purpose with a title and placeholder
func (p *PromptInput) Open(purpose, title, placeholder string) tea.Cmd {
	p.Purpose = purpose
	p.Title = title
	p.Input.Placeholder = placeholder
	p.Input.SetValue("")
	return p.Input.Focus()
}

// Update handles messages
func (p *PromptInput) Update(msg tea.Msg) (*PromptInput, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			value := p.Input.Value()
			if value == "" {
				return p, nil
			}
			purpose := p.Purpose
			p.Input.Blur()
			return p, func() tea.Msg {
				return PromptSubmitMsg{Purpose: purpose, Value: value}
			}
		case "esc":
			p.Input.Blur()
			return p, func() tea.Msg {
				return ClosePromptMsg{}
			}
		}
	}

	var cmd tea.Cmd
	p.Input, cmd = p.Input.Update(msg)
	return p, cmd
}

// View renders the prompt
func (p *PromptInput) View() string {
	p.Input.Width = max(p.Width-8, 20)

	titleStyle := lipgloss.NewStyle().
		Foreground(p.Theme.Info).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.BorderFocused).
		Padding(0, 1).
		Width(p.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(p.Theme.Muted).
		Italic(true)

	return boxStyle.Render(titleStyle.Render(p.Title) + "\n" + p.Input.View() + "\n" + helpStyle.Render("Enter: save │ Esc: cancel"))
}
