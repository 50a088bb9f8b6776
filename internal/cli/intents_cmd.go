package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/intents"
	"github.com/soyeahso/discordbridge/internal/store"
)

func newIntentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intents",
		Short: "Show the gateway intent mask the stored settings resolve to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(ctx context.Context, s *store.SettingsStore) error {
				doc, err := s.Get(ctx, config.PluginID)
				if err != nil {
					return err
				}
				settings, err := config.ParseSettings(doc)
				if err != nil {
					log.Warn().Err(err).Msg("stored settings are invalid, showing defaults")
				}

				mask, source := intents.ResolveWithSource(settings.IntentConfig())
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Mask:     %d (0x%x)\n", mask, mask)
				fmt.Fprintf(out, "Source:   %s\n", source)
				fmt.Fprintf(out, "Intents:  %s\n", strings.Join(intents.Names(mask), ", "))
				if p := mask & intents.Privileged; p != 0 {
					fmt.Fprintf(out, "\nPrivileged (%s) must also be enabled in the developer portal.\n",
						strings.Join(intents.Names(p), ", "))
				}
				return nil
			})
		},
	}
}
