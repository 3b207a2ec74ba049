package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/soyeahso/jsmdeploy/internal/config"
	"github.com/soyeahso/jsmdeploy/internal/hooks"
	"github.com/soyeahso/jsmdeploy/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the deployment phase and recorded resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()
			st, err := a.state.Peek()
			if err != nil {
				return err
			}

			lines := []string{
				titleStyle.Render(version.Info()),
				"",
				row("Project", projectDir),
				row("Env file", orNone(dotenvPath)),
				row("State", a.state.Path()),
				row("Backend", cfg.Registry.Backend),
				row("Phase", phaseText(st.Phase())),
				row("Hooks", hookSummary(a.hooks)),
			}
			if cfg.History.Enabled {
				a.openHistory(cmd.Context())
				runs := skipStyle.Render("unavailable")
				if a.history != nil {
					if n, err := a.history.Count(cmd.Context()); err == nil {
						runs = fmt.Sprintf("%d recorded", n)
					}
				}
				lines = append(lines, row("Runs", runs))
			}

			if st.Engine != nil {
				lines = append(lines, "", row("Engine", st.Engine.Resource))
				if st.Engine.DisplayName != "" {
					lines = append(lines, row("Name", st.Engine.DisplayName))
				}
				if !st.Engine.DeployedAt.IsZero() {
					lines = append(lines, row("Deployed", st.Engine.DeployedAt.Local().Format("2006-01-02 15:04:05")))
				}
				lines = append(lines, row("Sessions", st.Engine.SessionServiceURI()))
			}
			if st.Agent != nil {
				lines = append(lines, "", row("Auth", st.Agent.AuthID))
				if st.Agent.Name != "" {
					lines = append(lines, row("Agent", st.Agent.Name))
				} else {
					lines = append(lines, row("Agent", failStyle.Render("not created")))
				}
			}

			var notes []string
			for _, i := range config.Validate(&cfg) {
				notes = append(notes, "  - config "+i.String())
			}
			if issues := config.ValidatePlatform(a.platform); len(issues) > 0 {
				for _, i := range issues {
					notes = append(notes, "  - "+i.String())
				}
			}
			notes = append(notes, prefixAll("  ! ", a.platform.Warnings())...)
			if len(notes) > 0 {
				lines = append(lines, "", failStyle.Render(fmt.Sprintf("Problems (%d):", len(notes))))
				lines = append(lines, notes...)
			}

			fmt.Fprintln(cmd.OutOrStdout(), boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
			return nil
		},
	}
}

// hookSummary lists the events that have handlers, e.g. "after_deploy=2".
func hookSummary(m *hooks.Manager) string {
	var parts []string
	for _, event := range hooks.AllEvents {
		if n := m.Count(event); n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", event, n))
		}
	}
	return orNone(strings.Join(parts, " "))
}

func orNone(s string) string {
	if s == "" {
		return skipStyle.Render("(none)")
	}
	return s
}

func prefixAll(prefix string, in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = prefix + strings.TrimSpace(s)
	}
	return out
}
