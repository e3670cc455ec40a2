package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightoffers/internal/credential"
	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/providers"
	"github.com/dharmasatrya/flightoffers/internal/search"
)

type fakeSearcher struct {
	result    *models.SearchResult
	locations []models.NormalizedLocation
	pricing   *models.PricingResult
	errs      []error
	calls     int
	lastReq   models.SearchRequest
	lastOffer providers.RawOffer
}

func (f *fakeSearcher) nextErr() error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeSearcher) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	f.lastReq = *req
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	copied := *f.result
	return &copied, nil
}

func (f *fakeSearcher) SearchLocations(ctx context.Context, keyword string, subTypes []string) ([]models.NormalizedLocation, error) {
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	if err := models.ValidateKeyword(keyword); err != nil {
		return nil, err
	}
	return f.locations, nil
}

func (f *fakeSearcher) Price(ctx context.Context, offer providers.RawOffer) (*models.PricingResult, error) {
	f.lastOffer = offer
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	if len(offer.Raw()) == 0 {
		return nil, models.ErrMissingOffer
	}
	return f.pricing, nil
}

type memoryCache struct {
	entries map[string]*models.SearchResult
}

func (m *memoryCache) Get(ctx context.Context, req models.SearchRequest) (*models.SearchResult, bool) {
	r, ok := m.entries[cacheKey(req)]
	if !ok {
		return nil, false
	}
	copied := *r
	return &copied, true
}

func (m *memoryCache) Set(ctx context.Context, req models.SearchRequest, result *models.SearchResult) error {
	copied := *result
	m.entries[cacheKey(req)] = &copied
	return nil
}

func (m *memoryCache) Close() error { return nil }

func cacheKey(req models.SearchRequest) string {
	data, _ := json.Marshal(req)
	return string(data)
}

func newTestHandler(s Searcher, retryMax int) *SearchHandler {
	return NewSearchHandler(s, &memoryCache{entries: map[string]*models.SearchResult{}}, Config{
		DefaultCurrency: "USD",
		SearchTimeout:   5 * time.Second,
		RetryMax:        retryMax,
		RetryInitial:    time.Millisecond,
	})
}

func do(t *testing.T, h echo.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h(e.NewContext(req, rec)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

const singleBody = `{"originLocationCode":"ist","destinationLocationCode":"ebl","departureDate":"2025-06-01"}`

func singleResult() *models.SearchResult {
	return &models.SearchResult{
		Mode: models.ModeSingle,
		Offers: []models.NormalizedOffer{
			{ID: 1, Airline: "Turkish Airlines", CarrierCode: "TK", FlightNumber: "TK1234", Price: 150, Currency: "USD"},
		},
		Carriers: models.CarrierDictionary{"TK": "Turkish Airlines"},
		Meta:     models.Meta{Count: 1, SearchID: "abc"},
	}
}

func TestSearchSingleRoute(t *testing.T) {
	s := &fakeSearcher{result: singleResult()}
	h := newTestHandler(s, 0)

	rec, body := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Turkish Airlines", data[0].(map[string]any)["airline"])
	assert.Equal(t, map[string]any{"carriers": map[string]any{"TK": "Turkish Airlines"}}, body["dictionaries"])
	assert.Equal(t, "IST", s.lastReq.Origin)
	assert.Equal(t, "USD", s.lastReq.CurrencyCode)
}

func TestSearchMultipointShape(t *testing.T) {
	s := &fakeSearcher{result: &models.SearchResult{
		Mode: models.ModeMultipoint,
		Legs: []models.LegResult{
			{Segment: models.Leg{Origin: "IST", Destination: "EBL", DepartureDate: "2025-06-01"}, Offers: []models.NormalizedOffer{}},
			{Segment: models.Leg{Origin: "EBL", Destination: "IST", DepartureDate: "2025-06-05"}, Offers: []models.NormalizedOffer{}},
		},
		Carriers: models.CarrierDictionary{},
	}}
	h := newTestHandler(s, 0)

	body := `{"segments":[{"from":"IST","to":"EBL","departureDate":"2025-06-01"},{"from":"EBL","to":"IST","departureDate":"2025-06-05"}]}`
	rec, decoded := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decoded["data"].(map[string]any)
	assert.Equal(t, "Multipoint", data["mode"])
	assert.Len(t, data["legs"], 2)
}

func TestSearchValidationError(t *testing.T) {
	s := &fakeSearcher{result: singleResult()}
	h := newTestHandler(s, 0)

	rec, body := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", `{"originLocationCode":"IST"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["error"])
	assert.Equal(t, 0, s.calls)
}

func TestSearchMalformedBody(t *testing.T) {
	h := newTestHandler(&fakeSearcher{}, 0)

	rec, body := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", `{"adults":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["error"])
}

func TestSearchCacheHit(t *testing.T) {
	s := &fakeSearcher{result: singleResult()}
	h := newTestHandler(s, 0)

	_, first := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)
	_, second := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)

	assert.Equal(t, 1, s.calls)
	assert.Nil(t, first["meta"].(map[string]any)["cacheHit"])
	assert.Equal(t, true, second["meta"].(map[string]any)["cacheHit"])
}

func TestSearchRetriesRetryableProviderErrors(t *testing.T) {
	s := &fakeSearcher{
		result: singleResult(),
		errs: []error{
			&providers.RequestError{Operation: providers.OpFlightOffers, StatusCode: 503, Status: "503 Service Unavailable"},
			&providers.RequestError{Operation: providers.OpFlightOffers, StatusCode: 429, Status: "429 Too Many Requests"},
		},
	}
	h := newTestHandler(s, 2)

	rec, _ := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, s.calls)
}

func TestSearchRetryBudgetExhausted(t *testing.T) {
	unavailable := &providers.RequestError{Operation: providers.OpFlightOffers, StatusCode: 500, Status: "500 Internal Server Error"}
	s := &fakeSearcher{result: singleResult(), errs: []error{unavailable, unavailable, unavailable, unavailable}}
	h := newTestHandler(s, 1)

	rec, body := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "provider_error", body["error"])
	assert.Equal(t, 2, s.calls)
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	badRequest := &providers.RequestError{
		Operation:  providers.OpFlightOffers,
		StatusCode: 400,
		Status:     "400 Bad Request",
		Details:    []providers.APIError{{Code: 477, Title: "INVALID FORMAT", Detail: "bad date"}},
	}
	s := &fakeSearcher{result: singleResult(), errs: []error{badRequest}}
	h := newTestHandler(s, 3)

	rec, body := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "provider_error", body["error"])
	assert.Contains(t, body["message"], "INVALID FORMAT - bad date")
	assert.NotNil(t, body["details"])
	assert.Equal(t, 1, s.calls)
}

func TestSearchAuthFailureIsUpstreamUnavailable(t *testing.T) {
	authErr := providers.NewProviderError(providers.OpFlightOffers, &credential.AuthError{StatusCode: 401, Status: "401 Unauthorized"})
	s := &fakeSearcher{result: singleResult(), errs: []error{authErr}}
	h := newTestHandler(s, 2)

	rec, body := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "upstream_unavailable", body["error"])
	assert.Equal(t, 1, s.calls)
}

func TestSearchLegFailureReportsLeg(t *testing.T) {
	legErr := &search.LegError{
		Leg:         2,
		Origin:      "EBL",
		Destination: "IST",
		Err:         &providers.RequestError{Operation: providers.OpFlightOffers, StatusCode: 404, Status: "404 Not Found"},
	}
	s := &fakeSearcher{result: singleResult(), errs: []error{legErr}}
	h := newTestHandler(s, 0)

	body := `{"segments":[{"from":"IST","to":"EBL","departureDate":"2025-06-01"},{"from":"EBL","to":"IST","departureDate":"2025-06-05"}]}`
	rec, decoded := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	details := decoded["details"].(map[string]any)
	assert.Equal(t, float64(2), details["leg"])
	assert.Equal(t, "EBL", details["origin"])
}

func TestSearchTimeout(t *testing.T) {
	s := &fakeSearcher{result: singleResult(), errs: []error{context.DeadlineExceeded}}
	h := newTestHandler(s, 0)

	rec, body := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "timeout", body["error"])
}

func TestSearchUnexpectedError(t *testing.T) {
	s := &fakeSearcher{result: singleResult(), errs: []error{errors.New("boom")}}
	h := newTestHandler(s, 0)

	rec, body := do(t, h.Search, http.MethodPost, "/api/v1/flights/search", singleBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", body["error"])
}

func TestLocations(t *testing.T) {
	s := &fakeSearcher{locations: []models.NormalizedLocation{{Code: "IST", Name: "Istanbul Airport"}}}
	h := newTestHandler(s, 0)

	rec, body := do(t, h.Locations, http.MethodGet, "/api/v1/locations?keyword=ist&subType=airport", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)
}

func TestLocationsShortKeyword(t *testing.T) {
	h := newTestHandler(&fakeSearcher{}, 0)

	rec, body := do(t, h.Locations, http.MethodGet, "/api/v1/locations?keyword=i", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestPrice(t *testing.T) {
	s := &fakeSearcher{pricing: &models.PricingResult{
		Offers:   []models.NormalizedOffer{{ID: 1, CarrierCode: "TK", Price: 180.5}},
		Carriers: models.CarrierDictionary{"TK": "Turkish Airlines"},
		Raw:      json.RawMessage(`{"type":"flight-offers-pricing"}`),
	}}
	h := newTestHandler(s, 0)

	rec, body := do(t, h.Price, http.MethodPost, "/api/v1/flights/price", `{"flightOffer":{"id":"1","source":"GDS"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"1","source":"GDS"}`, string(s.lastOffer.Raw()))
	data := body["data"].(map[string]any)
	assert.Len(t, data["offers"], 1)
	assert.Equal(t, map[string]any{"type": "flight-offers-pricing"}, data["raw"])
}

func TestPriceMissingOffer(t *testing.T) {
	h := newTestHandler(&fakeSearcher{}, 0)

	rec, body := do(t, h.Price, http.MethodPost, "/api/v1/flights/price", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestHealth(t *testing.T) {
	rec, body := do(t, HealthHandler, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}
