package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zx06/xkeychain/internal/app"
	"github.com/zx06/xkeychain/internal/config"
	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/log"
	"github.com/zx06/xkeychain/internal/output"
)

// Build-time variables (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config holds the resolved configuration
type Config struct {
	FormatStr   string
	ConfigStr   string
	BackendStr  string
	LogLevelStr string
	Resolved    config.Resolved
	Logger      *slog.Logger
}

// GlobalConfig holds the global configuration state
var GlobalConfig = &Config{}

// NewRootCommand creates the root command. Its pre-run resolves
// CLI > ENV > config and builds the stderr logger.
func NewRootCommand(w *output.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "xkeychain",
		Short:         "Store, load, update and delete secrets in the OS credential store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configSet := cmd.Flags().Changed("config")
			if configSet && GlobalConfig.ConfigStr == "" {
				return errors.New(errors.CodeCfgInvalid, "config path is empty", nil)
			}
			env, xe := config.LoadEnv()
			if xe != nil {
				return xe
			}

			r, xe := config.Resolve(config.Options{
				ConfigPath:     GlobalConfig.ConfigStr,
				CLIBackend:     GlobalConfig.BackendStr,
				CLIBackendSet:  cmd.Flags().Changed("backend"),
				CLIFormat:      GlobalConfig.FormatStr,
				CLIFormatSet:   cmd.Flags().Changed("format"),
				CLILogLevel:    GlobalConfig.LogLevelStr,
				CLILogLevelSet: cmd.Flags().Changed("log-level"),
				Env:            env,
			})
			if xe != nil {
				return xe
			}
			level, xe := log.ParseLevel(r.LogLevel)
			if xe != nil {
				return xe
			}
			GlobalConfig.Resolved = r
			GlobalConfig.FormatStr = r.Format
			GlobalConfig.BackendStr = r.Backend
			GlobalConfig.Logger = log.NewWithLevel(w.Err, level)
			GlobalConfig.Logger.Debug("config resolved", "config", r.ConfigPath, "backend", r.Backend, "format", r.Format)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&GlobalConfig.ConfigStr, "config", "", "Config file path (YAML); default: ./xkeychain.yaml or $HOME/.config/xkeychain/xkeychain.yaml")
	root.PersistentFlags().StringVarP(&GlobalConfig.BackendStr, "backend", "b", "auto", "Credential store: auto|keychain|secret-service|wincred|file|keyring")
	root.PersistentFlags().StringVarP(&GlobalConfig.FormatStr, "format", "f", "auto", "Output format: json|yaml|table|csv|auto")
	root.PersistentFlags().StringVar(&GlobalConfig.LogLevelStr, "log-level", "info", "Log level on stderr: debug|info|warn|error")

	return root
}

// NewCLI assembles the root command with every subcommand.
func NewCLI(a *app.App, w *output.Writer) *cobra.Command {
	root := NewRootCommand(w)
	root.AddCommand(NewStoreCommand(w))
	root.AddCommand(NewLoadCommand(w))
	root.AddCommand(NewUpdateCommand(w))
	root.AddCommand(NewDeleteCommand(w))
	root.AddCommand(NewResolveCommand(w))
	root.AddCommand(NewBackendsCommand(w))
	root.AddCommand(NewDescribeCommand(a, w))
	root.AddCommand(NewVersionCommand(a, w))
	root.AddCommand(NewMCPCommand())
	return root
}
