package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightoffers/internal/airline"
	"github.com/dharmasatrya/flightoffers/internal/filter"
	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/normalize"
	"github.com/dharmasatrya/flightoffers/internal/providers"
)

// FlightProvider is the subset of the provider API the orchestrator drives.
type FlightProvider interface {
	SearchFlights(ctx context.Context, q providers.FlightQuery) (*providers.FlightOffersResponse, error)
	SearchLocations(ctx context.Context, keyword string, subTypes []string) (*providers.LocationsResponse, error)
	PriceOffer(ctx context.Context, offer providers.RawOffer) (*providers.PricingResponse, error)
}

type CarrierResolver interface {
	ResolveMissing(ctx context.Context, inUse []string, known models.CarrierDictionary) (models.CarrierDictionary, error)
}

// LegError reports which leg of a multipoint search failed. Leg is 1-based.
type LegError struct {
	Leg         int
	Origin      string
	Destination string
	Err         error
}

func (e *LegError) Error() string {
	return fmt.Sprintf("leg %d (%s-%s): %v", e.Leg, e.Origin, e.Destination, e.Err)
}

func (e *LegError) Unwrap() error {
	return e.Err
}

type Config struct {
	DefaultCurrency string
}

type Orchestrator struct {
	provider FlightProvider
	resolver CarrierResolver
	config   Config
}

func NewOrchestrator(provider FlightProvider, resolver CarrierResolver, config Config) *Orchestrator {
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "USD"
	}
	return &Orchestrator{
		provider: provider,
		resolver: resolver,
		config:   config,
	}
}

// Search validates req and runs it as a single-route or multipoint search.
// req is updated in place with the defaults validation fills in.
func (o *Orchestrator) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	if err := req.Validate(o.config.DefaultCurrency); err != nil {
		return nil, err
	}

	if req.Mode() == models.ModeMultipoint {
		return o.searchMultipoint(ctx, req)
	}
	return o.searchSingle(ctx, req)
}

func (o *Orchestrator) searchSingle(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	q := baseQuery(req)
	q.Origin = req.Origin
	q.Destination = req.Destination
	q.DepartureDate = req.DepartureDate
	q.ReturnDate = req.ReturnDate

	offers, meta, carriers, err := o.searchLeg(ctx, q, req, models.CarrierDictionary{})
	if err != nil {
		return nil, err
	}
	meta.SearchID = uuid.NewString()

	return &models.SearchResult{
		Mode:     models.ModeSingle,
		Offers:   offers,
		Carriers: carriers,
		Meta:     meta,
	}, nil
}

// searchMultipoint walks the legs in order, carrying the carrier dictionary
// forward so a code named for one leg is never looked up again. Any leg
// failure aborts the whole search.
func (o *Orchestrator) searchMultipoint(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	carriers := models.CarrierDictionary{}
	legs := make([]models.LegResult, 0, len(req.Segments))
	total := 0

	for i, leg := range req.Segments {
		q := baseQuery(req)
		q.Origin = leg.Origin
		q.Destination = leg.Destination
		q.DepartureDate = leg.DepartureDate

		offers, meta, updated, err := o.searchLeg(ctx, q, req, carriers)
		if err != nil {
			return nil, &LegError{
				Leg:         i + 1,
				Origin:      leg.Origin,
				Destination: leg.Destination,
				Err:         err,
			}
		}
		carriers = updated
		total += len(offers)

		legs = append(legs, models.LegResult{
			Segment: leg,
			Offers:  offers,
			Meta:    meta,
		})
	}

	return &models.SearchResult{
		Mode:     models.ModeMultipoint,
		Legs:     legs,
		Carriers: carriers,
		Meta: models.Meta{
			Count:    total,
			SearchID: uuid.NewString(),
		},
	}, nil
}

// searchLeg performs one provider search and returns its normalized offers
// together with the dictionary extended by this response.
func (o *Orchestrator) searchLeg(ctx context.Context, q providers.FlightQuery, req *models.SearchRequest, known models.CarrierDictionary) ([]models.NormalizedOffer, models.Meta, models.CarrierDictionary, error) {
	resp, err := o.provider.SearchFlights(ctx, q)
	if err != nil {
		return nil, models.Meta{}, known, err
	}

	carriers := known.Clone()
	if resp.Dictionaries != nil {
		carriers.Merge(resp.Dictionaries.Carriers)
	}
	carriers, err = o.resolveCarriers(ctx, resp.Data, carriers)
	if err != nil {
		return nil, models.Meta{}, known, err
	}

	offers, err := normalizeOffers(resp.Data, carriers)
	if err != nil {
		return nil, models.Meta{}, known, err
	}
	offers = filter.Apply(offers, req.SortBy, req.SortOrder, req.MaxResults)

	return offers, models.Meta{Count: len(offers)}, carriers, nil
}

// resolveCarriers backfills names missing from the dictionary. A failed
// lookup only costs display names, so it degrades to the codes themselves;
// cancellation still aborts the search.
func (o *Orchestrator) resolveCarriers(ctx context.Context, offers []providers.RawOffer, carriers models.CarrierDictionary) (models.CarrierDictionary, error) {
	if o.resolver == nil {
		return carriers, nil
	}

	resolved, err := o.resolver.ResolveMissing(ctx, airline.CodesInUse(offers), carriers)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return carriers, err
		}
		log.Printf("Airline lookup failed, falling back to carrier codes: %v", err)
	}
	if resolved == nil {
		return carriers, nil
	}
	return resolved, nil
}

func normalizeOffers(raw []providers.RawOffer, carriers models.CarrierDictionary) ([]models.NormalizedOffer, error) {
	offers := make([]models.NormalizedOffer, 0, len(raw))
	for i, r := range raw {
		n, err := normalize.Offer(r, i+1, carriers)
		if err != nil {
			return nil, fmt.Errorf("normalize: %w", err)
		}
		offers = append(offers, n)
	}
	return offers, nil
}

func baseQuery(req *models.SearchRequest) providers.FlightQuery {
	return providers.FlightQuery{
		Adults:               req.Adults,
		Children:             req.Children,
		Infants:              req.Infants,
		TravelClass:          req.TravelClass,
		NonStop:              req.NonStop,
		CurrencyCode:         req.CurrencyCode,
		Max:                  req.MaxResults,
		IncludedAirlineCodes: req.IncludedAirlineCodes,
	}
}

// SearchLocations validates the keyword before any provider call is made.
func (o *Orchestrator) SearchLocations(ctx context.Context, keyword string, subTypes []string) ([]models.NormalizedLocation, error) {
	keyword = strings.TrimSpace(keyword)
	if err := models.ValidateKeyword(keyword); err != nil {
		return nil, err
	}

	resp, err := o.provider.SearchLocations(ctx, keyword, subTypes)
	if err != nil {
		return nil, err
	}

	locations := make([]models.NormalizedLocation, 0, len(resp.Data))
	for _, raw := range resp.Data {
		locations = append(locations, normalize.Location(raw))
	}
	return locations, nil
}

// Price resubmits an offer from an earlier search and normalizes the
// confirmed offers the provider returns.
func (o *Orchestrator) Price(ctx context.Context, offer providers.RawOffer) (*models.PricingResult, error) {
	if len(offer.Raw()) == 0 {
		return nil, models.ErrMissingOffer
	}

	resp, err := o.provider.PriceOffer(ctx, offer)
	if err != nil {
		return nil, err
	}

	carriers := models.CarrierDictionary{}
	if resp.Dictionaries != nil {
		carriers.Merge(resp.Dictionaries.Carriers)
	}
	carriers, err = o.resolveCarriers(ctx, resp.Data.FlightOffers, carriers)
	if err != nil {
		return nil, err
	}

	offers, err := normalizeOffers(resp.Data.FlightOffers, carriers)
	if err != nil {
		return nil, err
	}

	return &models.PricingResult{
		Offers:   offers,
		Carriers: carriers,
		Raw:      resp.Raw(),
	}, nil
}
