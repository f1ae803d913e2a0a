package tui

import "github.com/charmbracelet/lipgloss"

var (
	Green  = lipgloss.Color("#3fb950")
	Red    = lipgloss.Color("#f85149")
	Amber  = lipgloss.Color("#d29922")
	Blue   = lipgloss.Color("#58a6ff")
	Dim    = lipgloss.Color("#6e7681")
	Invert = lipgloss.Color("#0d1117")

	PromptStyle    = lipgloss.NewStyle().Foreground(Green)
	ErrorStyle     = lipgloss.NewStyle().Foreground(Red)
	SuccessStyle   = lipgloss.NewStyle().Foreground(Green)
	InfoStyle      = lipgloss.NewStyle().Foreground(Amber)
	AsciiStyle     = lipgloss.NewStyle().Foreground(Blue)
	DirectoryStyle = lipgloss.NewStyle().Foreground(Blue).Bold(true)
	HiddenStyle    = lipgloss.NewStyle().Foreground(Dim)
	EncryptedStyle = lipgloss.NewStyle().Foreground(Amber)
	HintStyle      = lipgloss.NewStyle().Foreground(Dim)
	SelectedStyle  = lipgloss.NewStyle().Foreground(Invert).Background(Blue)
	DescStyle      = lipgloss.NewStyle().Foreground(Dim)
)
