package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles shared across the browser's views.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Content lipgloss.Style
	Help    lipgloss.Style
	Error   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		Content: lipgloss.NewStyle().Padding(0, 1),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}
