package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/providers"
)

func PriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price <offer.json>",
		Short: "Confirm the price of a raw offer returned by an earlier search",
		Long:  "Reads a raw flight offer (as found in rawOffer of a search result) from a file, or from stdin when the argument is -, and resubmits it for pricing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offer, err := readOffer(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			orch, cfg, err := buildOrchestrator()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			result, err := orch.Price(ctx, offer)
			if err != nil {
				return fmt.Errorf("pricing failed: %w", err)
			}
			return write(cmd, models.PricingData{
				Offers: result.Offers,
				Raw:    result.Raw,
			})
		},
	}
	return cmd
}

func readOffer(stdin io.Reader, path string) (providers.RawOffer, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return providers.RawOffer{}, fmt.Errorf("read offer: %w", err)
	}

	var offer providers.RawOffer
	if err := json.Unmarshal(data, &offer); err != nil {
		return providers.RawOffer{}, fmt.Errorf("decode offer: %w", err)
	}
	return offer, nil
}
