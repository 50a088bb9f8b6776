package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/store"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change the stored Discord plugin settings",
	}

	cmd.AddCommand(newSettingsGetCmd())
	cmd.AddCommand(newSettingsSetCmd())
	cmd.AddCommand(newSettingsUnsetCmd())
	cmd.AddCommand(newSettingsResetCmd())
	cmd.AddCommand(newSettingsHistoryCmd())
	cmd.AddCommand(newSettingsSchemaCmd())

	return cmd
}

// withSettings opens the configured settings store for the duration of fn.
func withSettings(fn func(ctx context.Context, s *store.SettingsStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := store.Open(storePath(cfg), log)
	if err != nil {
		return fmt.Errorf("opening settings store: %w", err)
	}
	defer db.Close()
	return fn(context.Background(), store.NewSettingsStore(db))
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print the settings document, or one key of it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(ctx context.Context, s *store.SettingsStore) error {
				doc, err := s.Get(ctx, config.PluginID)
				if err != nil {
					return err
				}
				if doc == "" {
					doc = config.DefaultSettingsJSON()
				}
				doc = config.RedactSettings(doc)

				if len(args) == 0 {
					return printJSON(cmd.OutOrStdout(), doc)
				}
				parts, err := config.ParseSettingPath(args[0])
				if err != nil {
					return err
				}
				v := gjson.Get(doc, strings.Join(parts, "."))
				if !v.Exists() {
					return fmt.Errorf("key %q not set", args[0])
				}
				return printJSON(cmd.OutOrStdout(), v.Raw)
			})
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a settings value",
		Long: "Set a settings value. Keys are auto_connect, token, gateway_intents, intents,\n" +
			"intents.<flag>, enable_message_content_intent and enable_client_logging.\n" +
			"Values are converted to the key's JSON type.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(ctx context.Context, s *store.SettingsStore) error {
				doc, err := s.Get(ctx, config.PluginID)
				if err != nil {
					return err
				}
				doc, err = config.SetSetting(doc, args[0], args[1])
				if err != nil {
					return err
				}
				if err := s.Put(ctx, config.PluginID, doc, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
				return nil
			})
		},
	}
}

func newSettingsUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a settings value so its default applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(ctx context.Context, s *store.SettingsStore) error {
				doc, err := s.Get(ctx, config.PluginID)
				if err != nil {
					return err
				}
				if doc == "" {
					return fmt.Errorf("no settings stored")
				}
				doc, err = config.UnsetSetting(doc, args[0])
				if err != nil {
					return err
				}
				if err := s.Put(ctx, config.PluginID, doc, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
				return nil
			})
		},
	}
}

func newSettingsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored settings document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(ctx context.Context, s *store.SettingsStore) error {
				if err := s.Delete(ctx, config.PluginID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Settings reset to defaults")
				return nil
			})
		},
	}
}

func newSettingsHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent settings changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(ctx context.Context, s *store.SettingsStore) error {
				changes, err := s.History(ctx, config.PluginID, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(changes) == 0 {
					fmt.Fprintln(out, "(no changes recorded)")
					return nil
				}
				for _, c := range changes {
					path := c.Path
					if path == "" {
						path = "-"
					}
					fmt.Fprintf(out, "%4d  %s  %-6s  %s\n", c.ID, c.At.Format("2006-01-02 15:04:05"), c.Action, path)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of changes to show")
	return cmd
}

func newSettingsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the settings schema and defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), config.SettingsSchema)
		},
	}
}

func printJSON(w io.Writer, raw string) error {
	_, err := w.Write(pretty.Pretty([]byte(raw)))
	return err
}
