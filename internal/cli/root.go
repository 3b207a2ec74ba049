package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/soyeahso/jsmdeploy/internal/config"
	"github.com/soyeahso/jsmdeploy/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	envFile    string
	logLevel   string
	projectDir string

	// loaded at init time
	paths      config.Paths
	cfg        config.Config
	log        *logging.Logger
	dotenvPath string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jsmdeploy",
		Short: "jsmdeploy - build, deploy and register the Jira agent",
		Long: "jsmdeploy packages the Jira Service Management agent, deploys it to AgentEngine " +
			"and registers it with Agentspace, tracking what exists in a local state file.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.jsmdeploy/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default: nearest .env above --dir)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, silent)")
	cmd.PersistentFlags().StringVar(&projectDir, "dir", ".", "agent project directory")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newDeployCmd())
	cmd.AddCommand(newUndeployCmd())
	cmd.AddCommand(newAgentspaceCmd())
	for _, c := range newDevCmds() {
		cmd.AddCommand(c)
	}

	return cmd
}

// setup resolves the project directory, loads the env file and config, and
// creates the logger.
func setup() error {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return err
	}

	if envFile != "" {
		if err := config.LoadDotenvFile(envFile); err != nil {
			return err
		}
		dotenvPath, _ = filepath.Abs(envFile)
	} else if dotenvPath, err = config.LoadDotenv(dir); err != nil {
		return err
	}
	// The management tools resolve their instance files next to the .env.
	if dotenvPath != "" {
		dir = filepath.Dir(dotenvPath)
	}
	projectDir = dir

	paths, err = config.ResolvePaths()
	if err != nil {
		return err
	}
	if cfgFile != "" {
		paths.Config = cfgFile
	}

	cfg, err = config.Load(paths.Config)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	log = logging.NewStyled(cfg.Logging.Style, cfg.Logging.Level)

	log.Debug().Str("dir", projectDir).Str("env", dotenvPath).Str("config", paths.Config).Msg("configured")
	return nil
}

func issuesError(source string, issues []config.ValidationIssue) error {
	msg := fmt.Sprintf("%s has %d problem(s):", source, len(issues))
	for _, i := range issues {
		msg += "\n  - " + i.String()
	}
	return &config.ConfigError{Message: msg}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// statePath resolves the state file against the project directory.
func statePath() string {
	if filepath.IsAbs(cfg.State.File) {
		return cfg.State.File
	}
	return filepath.Join(projectDir, cfg.State.File)
}

func historyPath() string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return paths.History
}
