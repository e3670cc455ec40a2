package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightoffers/internal/cache"
	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/providers"
)

// Searcher is the search pipeline behind the HTTP surface.
type Searcher interface {
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error)
	SearchLocations(ctx context.Context, keyword string, subTypes []string) ([]models.NormalizedLocation, error)
	Price(ctx context.Context, offer providers.RawOffer) (*models.PricingResult, error)
}

type Config struct {
	DefaultCurrency string
	SearchTimeout   time.Duration
	RetryMax        int
	RetryInitial    time.Duration
}

type SearchHandler struct {
	searcher Searcher
	cache    cache.Cache
	config   Config
}

func NewSearchHandler(searcher Searcher, c cache.Cache, config Config) *SearchHandler {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "USD"
	}
	if config.RetryInitial <= 0 {
		config.RetryInitial = 200 * time.Millisecond
	}
	return &SearchHandler{
		searcher: searcher,
		cache:    c,
		config:   config,
	}
}

func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := req.Validate(h.config.DefaultCurrency); err != nil {
		return writeError(c, err)
	}

	if cached, found := h.cache.Get(ctx, req); found {
		cached.Meta.CacheHit = true
		cached.Meta.TookMs = time.Since(startTime).Milliseconds()
		return writeSearchResult(c, cached)
	}

	var result *models.SearchResult
	err := h.retry(ctx, "search", func() error {
		var err error
		result, err = h.searcher.Search(ctx, &req)
		return err
	})
	if err != nil {
		return writeError(c, err)
	}

	_ = h.cache.Set(ctx, req, result)
	result.Meta.TookMs = time.Since(startTime).Milliseconds()

	return writeSearchResult(c, result)
}

func writeSearchResult(c echo.Context, result *models.SearchResult) error {
	dictionaries := models.Dictionaries{Carriers: result.Carriers}
	if dictionaries.Carriers == nil {
		dictionaries.Carriers = models.CarrierDictionary{}
	}

	if result.Mode == models.ModeMultipoint {
		return c.JSON(http.StatusOK, models.MultipointResponse{
			Success: true,
			Data: models.MultipointData{
				Mode: models.ModeMultipoint,
				Legs: result.Legs,
			},
			Meta:         result.Meta,
			Dictionaries: dictionaries,
		})
	}

	offers := result.Offers
	if offers == nil {
		offers = []models.NormalizedOffer{}
	}
	return c.JSON(http.StatusOK, models.SearchResponse{
		Success:      true,
		Data:         offers,
		Meta:         result.Meta,
		Dictionaries: dictionaries,
	})
}

func (h *SearchHandler) Locations(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	var subTypes []string
	if raw := c.QueryParam("subType"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				subTypes = append(subTypes, s)
			}
		}
	}

	var locations []models.NormalizedLocation
	err := h.retry(ctx, "locations", func() error {
		var err error
		locations, err = h.searcher.SearchLocations(ctx, keyword, subTypes)
		return err
	})
	if err != nil {
		return writeError(c, err)
	}

	if locations == nil {
		locations = []models.NormalizedLocation{}
	}
	return c.JSON(http.StatusOK, models.LocationsResponse{
		Success: true,
		Data:    locations,
	})
}

type priceRequest struct {
	FlightOffer *providers.RawOffer `json:"flightOffer"`
}

// Price confirms one offer. Pricing is not retried: the provider may already
// have acted on the first attempt.
func (h *SearchHandler) Price(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	var req priceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	var offer providers.RawOffer
	if req.FlightOffer != nil {
		offer = *req.FlightOffer
	}

	result, err := h.searcher.Price(ctx, offer)
	if err != nil {
		return writeError(c, err)
	}

	offers := result.Offers
	if offers == nil {
		offers = []models.NormalizedOffer{}
	}
	carriers := result.Carriers
	if carriers == nil {
		carriers = models.CarrierDictionary{}
	}
	return c.JSON(http.StatusOK, models.PricingResponse{
		Success: true,
		Data: models.PricingData{
			Offers: offers,
			Raw:    result.Raw,
		},
		Dictionaries: models.Dictionaries{Carriers: carriers},
	})
}

func (h *SearchHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.config.SearchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.config.SearchTimeout)
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
