package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func Header(s string) string { return headerStyle.Render(s) }

func Label(s string) string { return labelStyle.Render(s) }

func Good(s string) string { return goodStyle.Render(s) }

func Bad(s string) string { return badStyle.Render(s) }

// Rule is a horizontal separator of the given width.
func Rule(width int) string {
	return ruleStyle.Render(strings.Repeat("─", width))
}

// Verdict styles s as good when ok holds and bad otherwise.
func Verdict(s string, ok bool) string {
	if ok {
		return Good(s)
	}
	return Bad(s)
}
