package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/soyeahso/jsmdeploy/internal/agentspace"
	"github.com/soyeahso/jsmdeploy/internal/state"
	"github.com/spf13/cobra"
)

func newAgentspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentspace",
		Short: "Inspect and manage Agentspace resources through the REST API",
	}

	auth := &cobra.Command{Use: "auth", Short: "Manage authorization resources"}
	auth.AddCommand(newAuthCreateCmd(), newAuthListCmd(), newAuthDeleteCmd())

	agent := &cobra.Command{Use: "agent", Short: "Manage agent registrations"}
	agent.AddCommand(newAgentCreateCmd(), newAgentUpdateCmd(), newAgentGetCmd(), newAgentListCmd(), newAgentDeleteCmd())

	cmd.AddCommand(auth, agent)
	return cmd
}

// withClient runs fn with a native client built from the environment.
func withClient(cmd *cobra.Command, fn func(a *app, c *agentspace.Client) (any, error)) error {
	a := newApp()
	c, err := a.agentspaceClient(cmd.Context())
	if err != nil {
		return err
	}
	for _, w := range a.platform.Warnings() {
		log.Warn().Msg(w)
	}
	out, err := fn(a, c)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func authIDArg(a *app, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if a.platform.AuthID == "" {
		return "", errors.New("no auth id given and AGENTSPACE_AUTH_ID is not set")
	}
	return a.platform.AuthID, nil
}

func newAuthCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [auth-id]",
		Short: "Create the OAuth authorization (defaults to AGENTSPACE_AUTH_ID)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(a *app, c *agentspace.Client) (any, error) {
				id, err := authIDArg(a, args)
				if err != nil {
					return nil, err
				}
				return c.CreateAuthorization(cmd.Context(), id, agentspace.ServerSideOAuth2{
					ClientID:         a.platform.OAuthClientID,
					ClientSecret:     a.platform.OAuthClientSecret,
					AuthorizationURI: a.platform.OAuthAuthURI,
					TokenURI:         a.platform.OAuthTokenURI,
				})
			})
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List authorization resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(_ *app, c *agentspace.Client) (any, error) {
				return c.ListAuthorizations(cmd.Context())
			})
		},
	}
}

func newAuthDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [auth-id]",
		Short: "Delete an authorization (defaults to AGENTSPACE_AUTH_ID)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(a *app, c *agentspace.Client) (any, error) {
				id, err := authIDArg(a, args)
				if err != nil {
					return nil, err
				}
				if err := c.DeleteAuthorization(cmd.Context(), id); err != nil {
					return nil, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted authorization %s\n", id)
				return nil, nil
			})
		},
	}
}

func newAgentCreateCmd() *cobra.Command {
	var authID string
	cmd := &cobra.Command{
		Use:   "create [engine-resource]",
		Short: "Register an agent backed by an engine (defaults to the recorded engine)",
		Long: "Register an agent backed by an AgentEngine resource, described by the AGENTSPACE_AGENT_* " +
			"settings. This does not touch the local state file; use deploy to record a registration.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(a *app, c *agentspace.Client) (any, error) {
				if a.platform.SpaceAppID == "" {
					return nil, errors.New("AGENTSPACE_APP_ID is not set")
				}
				st, err := a.state.Peek()
				if err != nil {
					return nil, err
				}
				engine, err := engineArg(st, args)
				if err != nil {
					return nil, err
				}
				id := recordedAuthID(a, st, cmd, authID)
				return c.CreateAgent(cmd.Context(), a.platform.SpaceAppID, agentspace.SpecFromPlatform(a.platform, engine, id))
			})
		},
	}
	cmd.Flags().StringVar(&authID, "auth-id", "", "authorization the agent uses (defaults to the recorded auth, then AGENTSPACE_AUTH_ID)")
	return cmd
}

func newAgentUpdateCmd() *cobra.Command {
	var (
		engine string
		authID string
	)
	cmd := &cobra.Command{
		Use:   "update [name]",
		Short: "Rewrite an agent from the current settings (defaults to the recorded agent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(a *app, c *agentspace.Client) (any, error) {
				st, err := a.state.Peek()
				if err != nil {
					return nil, err
				}
				name, err := agentNameArg(st, args)
				if err != nil {
					return nil, err
				}
				var engineArgs []string
				if engine != "" {
					engineArgs = []string{engine}
				}
				resource, err := engineArg(st, engineArgs)
				if err != nil {
					return nil, err
				}
				id := recordedAuthID(a, st, cmd, authID)
				return c.UpdateAgent(cmd.Context(), name, agentspace.SpecFromPlatform(a.platform, resource, id))
			})
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "engine resource backing the agent (defaults to the recorded engine)")
	cmd.Flags().StringVar(&authID, "auth-id", "", "authorization the agent uses (defaults to the recorded auth, then AGENTSPACE_AUTH_ID)")
	return cmd
}

func newAgentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [name]",
		Short: "Show an agent (defaults to the recorded agent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(a *app, c *agentspace.Client) (any, error) {
				st, err := a.state.Peek()
				if err != nil {
					return nil, err
				}
				name, err := agentNameArg(st, args)
				if err != nil {
					return nil, err
				}
				return c.GetAgent(cmd.Context(), name)
			})
		},
	}
}

func newAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the agents registered in the Agentspace app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(a *app, c *agentspace.Client) (any, error) {
				if a.platform.SpaceAppID == "" {
					return nil, errors.New("AGENTSPACE_APP_ID is not set")
				}
				return c.ListAgents(cmd.Context(), a.platform.SpaceAppID)
			})
		},
	}
}

func newAgentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an agent registration by resource name",
		Long: "Delete an agent registration by resource name. This does not touch the local " +
			"state file; use undeploy to tear down the recorded deployment.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(_ *app, c *agentspace.Client) (any, error) {
				if err := c.DeleteAgent(cmd.Context(), args[0]); err != nil {
					return nil, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted agent %s\n", args[0])
				return nil, nil
			})
		},
	}
}

func agentNameArg(st *state.State, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if st.Agent == nil || st.Agent.Name == "" {
		return "", errors.New("no agent recorded: pass a resource name")
	}
	return st.Agent.Name, nil
}

func engineArg(st *state.State, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if st.Engine == nil {
		return "", errors.New("no engine recorded: pass an engine resource")
	}
	return st.Engine.Resource, nil
}

// recordedAuthID resolves the --auth-id flag, falling back to the auth in
// the state file and then AGENTSPACE_AUTH_ID.
func recordedAuthID(a *app, st *state.State, cmd *cobra.Command, flag string) string {
	if cmd.Flags().Changed("auth-id") {
		return flag
	}
	if st.Agent != nil && st.Agent.AuthID != "" {
		return st.Agent.AuthID
	}
	return a.platform.AuthID
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
