package ui

import "github.com/charmbracelet/lipgloss"

// Lipgloss styles for the conversation view.
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	youLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("246"))
	secretStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("118")).Border(lipgloss.RoundedBorder()).Padding(0, 1)
	badgeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("118")).Padding(0, 1)
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
