package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/discordbridge/internal/host"
	"github.com/soyeahso/discordbridge/internal/nodes"
)

func newNodesCmd() *cobra.Command {
	var showPins bool

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the node types available to flows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := host.NewCatalog()
			if err := nodes.New(nodes.Options{}).Register(catalog); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			category := ""
			for _, d := range catalog.Descriptors() {
				if d.Category != category {
					category = d.Category
					fmt.Fprintf(out, "\n%s\n", category)
				}
				fmt.Fprintf(out, "  %-40s %s\n", d.TypeID, d.Description)
				if !showPins {
					continue
				}
				if pins := pinList(d.Inputs()); pins != "" {
					fmt.Fprintf(out, "  %-40s in:  %s\n", "", pins)
				}
				if pins := pinList(d.Outputs()); pins != "" {
					fmt.Fprintf(out, "  %-40s out: %s\n", "", pins)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPins, "pins", false, "also list data pins")
	return cmd
}

func pinList(pins []host.PinDesc) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = p.Name + ":" + p.Type
	}
	return strings.Join(parts, ", ")
}
