package cli

import (
	"fmt"
	"maps"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soyeahso/discordbridge/internal/config"
)

const redacted = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the host configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(redactConfig(cfg))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			issues := config.Validate(&cfg)
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Config OK")
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", issue)
			}
			return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), paths.Config)
		},
	}
}

// redactConfig masks the monitor token, DISCORD_TOKEN in the flow env and
// every Token property or input.
func redactConfig(cfg config.Config) config.Config {
	if cfg.Monitor.Token != "" {
		cfg.Monitor.Token = redacted
	}
	cfg.Host.FlowEnv = maskKey(cfg.Host.FlowEnv, "DISCORD_TOKEN")

	flows := make([]config.FlowConfig, len(cfg.Flows))
	for i, f := range cfg.Flows {
		f.Properties = maskKey(f.Properties, "Token")
		f.Trigger = redactNode(f.Trigger)
		actions := make([]config.NodeConfig, len(f.Actions))
		for j, a := range f.Actions {
			actions[j] = redactNode(a)
		}
		f.Actions = actions
		flows[i] = f
	}
	cfg.Flows = flows
	return cfg
}

func redactNode(n config.NodeConfig) config.NodeConfig {
	n.Inputs = maskKey(n.Inputs, "Token")
	n.Properties = maskKey(n.Properties, "Token")
	return n
}

// maskKey returns a copy of m with key masked, leaving m untouched.
// Values that reference another variable stay visible.
func maskKey(m map[string]string, key string) map[string]string {
	v, ok := m[key]
	if !ok || v == "" || v[0] == '$' {
		return m
	}
	out := maps.Clone(m)
	out[key] = redacted
	return out
}
