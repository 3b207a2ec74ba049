package cli

import (
	"context"
	"fmt"

	"github.com/soyeahso/jsmdeploy/internal/config"
	"github.com/soyeahso/jsmdeploy/internal/lifecycle"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Remove old build output and build the agent wheel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()
			ctl, err := a.controller(cmd.Context(), controllerOptions{buildOnly: true})
			if err != nil {
				return err
			}
			return report(cmd, ctl.Build)
		},
	}
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the build output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if issues := config.Validate(&cfg); len(issues) > 0 {
				return issuesError(paths.Config, issues)
			}
			return newApp().tools.Clean(cmd.Context())
		},
	}
}

func newDeployCmd() *cobra.Command {
	var skipTest bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Build, tear down, deploy to AgentEngine and register with Agentspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()

			if issues := config.ValidatePlatform(a.platform); len(issues) > 0 {
				return issuesError(envSource(), issues)
			}
			for _, w := range a.platform.Warnings() {
				log.Warn().Msg(w)
			}

			ctl, err := a.controller(cmd.Context(), controllerOptions{skipTest: skipTest})
			if err != nil {
				return err
			}
			return report(cmd, ctl.Deploy)
		},
	}
	cmd.Flags().BoolVar(&skipTest, "skip-test", false, "skip the remote smoke test")
	return cmd
}

func newUndeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undeploy",
		Short: "Delete the Agentspace agent, its auth and the AgentEngine instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.close()
			ctl, err := a.controller(cmd.Context(), controllerOptions{lazyRegistry: true})
			if err != nil {
				return err
			}
			return report(cmd, ctl.Undeploy)
		},
	}
}

func report(cmd *cobra.Command, op func(context.Context) (*lifecycle.Outcome, error)) error {
	out, err := op(cmd.Context())
	w := cmd.OutOrStdout()
	printOutcome(w, out)
	if err == nil {
		fmt.Fprintln(w, okStyle.Render(out.Operation+" complete"))
	}
	return err
}

func envSource() string {
	if dotenvPath != "" {
		return dotenvPath
	}
	return "environment"
}
