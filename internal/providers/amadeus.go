package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/flightoffers/internal/credential"
	"github.com/dharmasatrya/flightoffers/internal/ratelimit"
)

const (
	flightOffersPath = "/v2/shopping/flight-offers"
	locationsPath    = "/v1/reference-data/locations"
	pricingPath      = "/v1/shopping/flight-offers/pricing"
	airlinesPath     = "/v1/reference-data/airlines"

	maxErrorBody = 1 << 20
)

// FlightQuery is one origin/destination request against the offers endpoint.
type FlightQuery struct {
	Origin               string
	Destination          string
	DepartureDate        string
	ReturnDate           string
	Adults               int
	Children             int
	Infants              int
	TravelClass          string
	NonStop              bool
	CurrencyCode         string
	Max                  int
	IncludedAirlineCodes []string
}

func (q FlightQuery) Values() url.Values {
	v := url.Values{}
	v.Set("originLocationCode", q.Origin)
	v.Set("destinationLocationCode", q.Destination)
	v.Set("departureDate", q.DepartureDate)
	v.Set("adults", strconv.Itoa(q.Adults))

	if q.ReturnDate != "" {
		v.Set("returnDate", q.ReturnDate)
	}
	if q.Children > 0 {
		v.Set("children", strconv.Itoa(q.Children))
	}
	if q.Infants > 0 {
		v.Set("infants", strconv.Itoa(q.Infants))
	}
	if q.TravelClass != "" {
		v.Set("travelClass", q.TravelClass)
	}
	if q.NonStop {
		v.Set("nonStop", "true")
	}
	if q.CurrencyCode != "" {
		v.Set("currencyCode", q.CurrencyCode)
	}
	if q.Max > 0 {
		v.Set("max", strconv.Itoa(q.Max))
	}
	if len(q.IncludedAirlineCodes) > 0 {
		v.Set("includedAirlineCodes", strings.Join(q.IncludedAirlineCodes, ","))
	}
	return v
}

type ClientConfig struct {
	BaseURL     string
	Credentials credential.Source
	Limiter     *ratelimit.OperationLimiter
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// AmadeusClient talks to the self-service flight API. It holds no state of
// its own beyond the shared credential source and never retries.
type AmadeusClient struct {
	baseURL     string
	httpClient  *http.Client
	credentials credential.Source
	limiter     *ratelimit.OperationLimiter
}

func NewAmadeusClient(cfg ClientConfig) *AmadeusClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &AmadeusClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  httpClient,
		credentials: cfg.Credentials,
		limiter:     cfg.Limiter,
	}
}

func (c *AmadeusClient) SearchFlights(ctx context.Context, q FlightQuery) (*FlightOffersResponse, error) {
	var resp FlightOffersResponse
	u := c.baseURL + flightOffersPath + "?" + q.Values().Encode()
	if err := c.doJSON(ctx, OpFlightOffers, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *AmadeusClient) SearchLocations(ctx context.Context, keyword string, subTypes []string) (*LocationsResponse, error) {
	if len(subTypes) == 0 {
		subTypes = []string{"AIRPORT", "CITY"}
	}

	v := url.Values{}
	v.Set("keyword", keyword)
	v.Set("subType", strings.Join(subTypes, ","))
	v.Set("view", "LIGHT")

	var resp LocationsResponse
	u := c.baseURL + locationsPath + "?" + v.Encode()
	if err := c.doJSON(ctx, OpLocations, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *AmadeusClient) PriceOffer(ctx context.Context, offer RawOffer) (*PricingResponse, error) {
	body, err := json.Marshal(pricingRequest{
		Data: pricingRequestData{
			Type:         "flight-offers-pricing",
			FlightOffers: []RawOffer{offer},
		},
	})
	if err != nil {
		return nil, NewProviderError(OpPricing, fmt.Errorf("encode pricing request: %w", err))
	}

	var resp PricingResponse
	if err := c.doJSON(ctx, OpPricing, http.MethodPost, c.baseURL+pricingPath, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *AmadeusClient) LookupAirlines(ctx context.Context, codes []string) (*AirlinesResponse, error) {
	v := url.Values{}
	v.Set("airlineCodes", strings.Join(codes, ","))

	var resp AirlinesResponse
	u := c.baseURL + airlinesPath + "?" + v.Encode()
	if err := c.doJSON(ctx, OpAirlines, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *AmadeusClient) doJSON(ctx context.Context, op, method, u string, body []byte, v interface{}) error {
	if err := c.limiter.Wait(ctx, op); err != nil {
		return NewProviderError(op, fmt.Errorf("rate limit wait: %w", err))
	}

	token, err := c.credentials.Token(ctx)
	if err != nil {
		return NewProviderError(op, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return NewProviderError(op, fmt.Errorf("could not create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.amadeus+json, application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.amadeus+json")
		if op == OpPricing {
			req.Header.Set("X-HTTP-Method-Override", "GET")
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewProviderError(op, fmt.Errorf("could not send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.credentials.Invalidate()
		}
		return newRequestError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return NewProviderError(op, fmt.Errorf("could not decode response: %w", err))
	}
	return nil
}

func newRequestError(op string, resp *http.Response) *RequestError {
	reqErr := &RequestError{
		Operation:  op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return reqErr
	}

	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil {
		reqErr.Details = er.Errors
	}
	return reqErr
}
