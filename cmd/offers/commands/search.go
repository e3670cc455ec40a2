package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightoffers/internal/models"
)

func SearchCmd() *cobra.Command {
	var (
		req  models.SearchRequest
		legs []string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search flight offers for a route or a multipoint itinerary",
		Example: `  offers search --from IST --to EBL --depart 2025-06-01
  offers search --from IST --to EBL --depart 2025-06-01 --return 2025-06-10 --sort-by best_value
  offers search --leg IST:EBL:2025-06-01 --leg EBL:IST:2025-06-05 -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range legs {
				leg, err := parseLeg(raw)
				if err != nil {
					return err
				}
				req.Segments = append(req.Segments, leg)
			}

			orch, cfg, err := buildOrchestrator()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			result, err := orch.Search(ctx, &req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return write(cmd, result)
		},
	}

	cmd.Flags().StringVar(&req.Origin, "from", "", "Origin airport or city code")
	cmd.Flags().StringVar(&req.Destination, "to", "", "Destination airport or city code")
	cmd.Flags().StringVar(&req.DepartureDate, "depart", "", "Departure date YYYY-MM-DD")
	cmd.Flags().StringVar(&req.ReturnDate, "return", "", "Return date YYYY-MM-DD (optional)")
	cmd.Flags().StringArrayVar(&legs, "leg", nil, "Multipoint leg ORIGIN:DESTINATION:YYYY-MM-DD (repeat, at least two)")
	cmd.Flags().IntVar(&req.Adults, "adults", 1, "Number of adults")
	cmd.Flags().IntVar(&req.Children, "children", 0, "Number of children")
	cmd.Flags().IntVar(&req.Infants, "infants", 0, "Number of infants")
	cmd.Flags().StringVar(&req.TravelClass, "cabin", "", "Cabin: ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST")
	cmd.Flags().BoolVar(&req.NonStop, "non-stop", false, "Only direct flights")
	cmd.Flags().StringVar(&req.CurrencyCode, "currency", "", "Currency code (default from DEFAULT_CURRENCY)")
	cmd.Flags().IntVar(&req.MaxResults, "max", models.DefaultMaxResults, "Maximum offers per route")
	cmd.Flags().StringSliceVar(&req.IncludedAirlineCodes, "airlines", nil, "Only these carrier codes")
	cmd.Flags().StringVar(&req.SortBy, "sort-by", "", "Sort by price, duration, departure, stops or best_value")
	cmd.Flags().StringVar(&req.SortOrder, "sort-order", "asc", "asc or desc")

	return cmd
}

// parseLeg reads ORIGIN:DESTINATION:DATE.
func parseLeg(raw string) (models.Leg, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return models.Leg{}, fmt.Errorf("invalid --leg %q: want ORIGIN:DESTINATION:YYYY-MM-DD", raw)
	}
	return models.Leg{
		Origin:        strings.TrimSpace(parts[0]),
		Destination:   strings.TrimSpace(parts[1]),
		DepartureDate: strings.TrimSpace(parts[2]),
	}, nil
}
