package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/credential"
	"github.com/soyeahso/discordbridge/internal/host"
	"github.com/soyeahso/discordbridge/internal/intents"
	"github.com/soyeahso/discordbridge/internal/store"
	"github.com/soyeahso/discordbridge/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show discordbridge status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "discordbridge %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintln(out)

			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}
			if _, err := os.Stat(paths.Config); err != nil {
				fmt.Fprintln(out, "Config:   not found (using defaults)")
			}

			fmt.Fprintf(out, "Host:     tick=%s envFile=%s flowEnv=%d\n",
				cfg.Host.TickInterval, paths.Resolve(cfg.Host.EnvFile), len(cfg.Host.FlowEnv))
			if cfg.Monitor.Enabled {
				auth := "none"
				if cfg.Monitor.Token != "" {
					auth = "token"
				}
				fmt.Fprintf(out, "Monitor:  addr=%s auth=%s\n", cfg.Monitor.Addr, auth)
			} else {
				fmt.Fprintln(out, "Monitor:  (disabled)")
			}

			if len(cfg.Flows) > 0 {
				for _, f := range cfg.Flows {
					fmt.Fprintf(out, "Flow:     %s trigger=%s actions=%d\n",
						f.Name, strings.TrimPrefix(f.Trigger.Type, config.PluginID+"."), len(f.Actions))
				}
			} else {
				fmt.Fprintln(out, "Flow:     (none configured)")
			}

			// Stored settings
			db, err := store.Open(storePath(cfg), log)
			if err != nil {
				fmt.Fprintf(out, "Settings: error opening store: %v\n", err)
			} else {
				defer db.Close()
				doc, err := store.NewSettingsStore(db).Get(context.Background(), config.PluginID)
				if err != nil {
					fmt.Fprintf(out, "Settings: error reading: %v\n", err)
				} else {
					printSettingsSummary(cmd, cfg, doc)
				}
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

func printSettingsSummary(cmd *cobra.Command, cfg config.Config, doc string) {
	out := cmd.OutOrStdout()
	stored := "stored"
	if doc == "" {
		stored = "defaults"
	}
	settings, err := config.ParseSettings(doc)
	if err != nil {
		stored = "invalid, using defaults"
	}
	mask := intents.Resolve(settings.IntentConfig())
	fmt.Fprintf(out, "Settings: %s autoConnect=%v intents=%d clientLogging=%v\n",
		stored, settings.AutoConnect, mask, settings.EnableClientLogging)

	appEnv, err := host.NewFileEnv(paths.Resolve(cfg.Host.EnvFile))
	if err != nil {
		fmt.Fprintf(out, "Token:    error reading env file: %v\n", err)
		return
	}
	resolver := &credential.Resolver{
		FlowEnv:  host.MapEnv(cfg.Host.FlowEnv),
		AppEnv:   appEnv,
		Settings: func() string { return settings.Token },
	}
	res, err := resolver.Resolve("", "")
	if err != nil {
		fmt.Fprintln(out, "Token:    (not found)")
		return
	}
	fmt.Fprintf(out, "Token:    source=%s length=%d\n", res.Source, len(res.Token))
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "          warning: %s\n", w)
	}
}
