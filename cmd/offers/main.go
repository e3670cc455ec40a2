package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightoffers/cmd/offers/commands"
)

func main() {
	root := &cobra.Command{
		Use:           "offers",
		Short:         "Search, look up and price flight offers from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("output", "o", "json", "Output format: json or yaml")

	root.AddCommand(commands.SearchCmd())
	root.AddCommand(commands.LocationsCmd())
	root.AddCommand(commands.PriceCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
