package cli

import (
	"github.com/spf13/cobra"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discordbridge",
		Short: "discordbridge runs Discord bot flows on a single tick loop",
		Long: "discordbridge connects a Discord bot to a tick-driven flow host. Gateway events are queued\n" +
			"from network goroutines and dispatched to flows only on the host tick.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(cmd.ErrOrStderr(), level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.discordbridge/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newSettingsCmd())
	cmd.AddCommand(newIntentsCmd())
	cmd.AddCommand(newNodesCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig reads the config file, applying a --log-level override.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// storePath returns where settings are persisted for cfg.
func storePath(cfg config.Config) string {
	switch cfg.Store.Path {
	case "":
		return paths.Settings
	case ":memory:":
		return cfg.Store.Path
	default:
		return paths.Resolve(cfg.Store.Path)
	}
}
