package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func LocationsCmd() *cobra.Command {
	var subTypes []string

	cmd := &cobra.Command{
		Use:     "locations <keyword>",
		Short:   "Find airports and cities matching a keyword",
		Example: `  offers locations ist --sub-type AIRPORT`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, cfg, err := buildOrchestrator()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			locations, err := orch.SearchLocations(ctx, args[0], subTypes)
			if err != nil {
				return fmt.Errorf("location search failed: %w", err)
			}
			return write(cmd, locations)
		},
	}

	cmd.Flags().StringSliceVar(&subTypes, "sub-type", nil, "AIRPORT, CITY or both (default both)")

	return cmd
}
