package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// devCommand runs a fixed sequence of uv invocations in the project.
type devCommand struct {
	use   string
	short string
	steps [][]string
}

var devCommands = []devCommand{
	{use: "install", short: "Install project dependencies (uv sync)", steps: [][]string{{"sync"}}},
	{use: "check", short: "Lint, format-check and type-check the agent", steps: [][]string{
		{"run", "ruff", "check"},
		{"run", "ruff", "format", "--check"},
		{"run", "pyright"},
	}},
	{use: "test", short: "Run the agent's unit tests", steps: [][]string{{"run", "pytest"}}},
	{use: "adk", short: "Run the ADK web UI locally", steps: [][]string{{"run", "adk", "web"}}},
}

func newDevCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(devCommands)+1)
	for _, dc := range devCommands {
		dc := dc
		cmds = append(cmds, &cobra.Command{
			Use:   dc.use,
			Short: dc.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a := newApp()
				if err := a.tools.Check(); err != nil {
					return err
				}
				for _, s := range dc.steps {
					c := a.tools.UV(s...)
					c.Interactive = dc.use == "adk"
					if err := a.tools.Run(cmd.Context(), c); err != nil {
						return err
					}
				}
				return nil
			},
		})
	}
	return append(cmds, newADKEngineWebCmd())
}

func newADKEngineWebCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adk-agentengine-web",
		Short: "Run the ADK web UI locally against the deployed engine's sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			st, err := a.state.Peek()
			if err != nil {
				return err
			}
			if st.Engine == nil {
				return errors.New("no engine deployed: run jsmdeploy deploy first")
			}
			if err := a.tools.Check(); err != nil {
				return err
			}
			c := a.tools.UV("run", "adk", "web", "--session_service_uri="+st.Engine.SessionServiceURI())
			c.Interactive = true
			return a.tools.Run(cmd.Context(), c)
		},
	}
}
