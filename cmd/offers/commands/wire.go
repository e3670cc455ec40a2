package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightoffers/internal/app"
	"github.com/dharmasatrya/flightoffers/internal/config"
	"github.com/dharmasatrya/flightoffers/internal/output"
	"github.com/dharmasatrya/flightoffers/internal/search"
)

func buildOrchestrator() (*search.Orchestrator, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, config.Config{}, err
	}
	return app.NewOrchestrator(cfg), cfg, nil
}

func commandContext(cmd *cobra.Command, cfg config.Config) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.SearchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.SearchTimeout)
}

func write(cmd *cobra.Command, v interface{}) error {
	format, _ := cmd.Flags().GetString("output")
	return output.Write(format, v)
}
