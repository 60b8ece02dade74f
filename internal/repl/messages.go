package repl

import tea "github.com/charmbracelet/bubbletea"

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
	statusSuccess
)

type statusMsg struct {
	text  string
	level statusLevel
}

func statusCmd(level statusLevel, text string) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, level: level}
	}
}
