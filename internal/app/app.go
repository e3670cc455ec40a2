package app

import (
	"net/http"

	"github.com/dharmasatrya/flightoffers/internal/airline"
	"github.com/dharmasatrya/flightoffers/internal/config"
	"github.com/dharmasatrya/flightoffers/internal/credential"
	"github.com/dharmasatrya/flightoffers/internal/providers"
	"github.com/dharmasatrya/flightoffers/internal/ratelimit"
	"github.com/dharmasatrya/flightoffers/internal/search"
)

// NewOrchestrator wires the credential cache, provider client and carrier
// resolver behind one search orchestrator. The token cache is shared by every
// request the returned orchestrator serves.
func NewOrchestrator(cfg config.Config) *search.Orchestrator {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	tokens := credential.NewCache(credential.Config{
		BaseURL:      cfg.BaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		HTTPClient:   httpClient,
	})

	limiter := NewLimiter(cfg)

	client := providers.NewAmadeusClient(providers.ClientConfig{
		BaseURL:     cfg.BaseURL,
		Credentials: tokens,
		Limiter:     limiter,
		Timeout:     cfg.HTTPTimeout,
		HTTPClient:  httpClient,
	})

	return search.NewOrchestrator(
		client,
		airline.NewResolver(client, cfg.AirlineBatchSize),
		search.Config{DefaultCurrency: cfg.DefaultCurrency},
	)
}

// NewLimiter applies the provider quota to every operation and a separate,
// usually tighter, quota to offer pricing.
func NewLimiter(cfg config.Config) *ratelimit.OperationLimiter {
	limiter := ratelimit.NewOperationLimiter(ratelimit.RateLimitConfig{
		RequestsPerSecond: cfg.ProviderRPS,
		BurstSize:         cfg.ProviderBurst,
	})
	if cfg.PricingRPS > 0 && cfg.PricingBurst > 0 {
		limiter.SetOperationLimit(providers.OpPricing, cfg.PricingRPS, cfg.PricingBurst)
	}
	return limiter
}
