package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/soyeahso/jsmdeploy/internal/lifecycle"
	"github.com/soyeahso/jsmdeploy/internal/state"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("#AAAAAA"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	skipStyle  = lipgloss.NewStyle().Faint(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func statusText(s string) string {
	switch s {
	case string(lifecycle.StatusOK):
		return okStyle.Render(s)
	case string(lifecycle.StatusFailed):
		return failStyle.Render(s)
	default:
		return skipStyle.Render(s)
	}
}

func phaseText(p state.Phase) string {
	switch p {
	case state.PhaseRegistered:
		return okStyle.Render(string(p))
	case state.PhaseDeployed:
		return titleStyle.Render(string(p))
	default:
		return skipStyle.Render(string(p))
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + " " + value
}

// printOutcome writes one line per step.
func printOutcome(w io.Writer, o *lifecycle.Outcome) {
	for _, s := range o.Steps {
		line := fmt.Sprintf("%-8s %-16s", statusText(string(s.Status)), s.Name)
		switch s.Status {
		case lifecycle.StatusSkipped:
			line += " " + skipStyle.Render(s.Message)
		case lifecycle.StatusFailed:
			line += " " + failStyle.Render(s.Message)
		default:
			line += " " + skipStyle.Render(s.Duration.Round(time.Millisecond).String())
		}
		fmt.Fprintln(w, line)
	}
}
