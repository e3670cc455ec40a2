package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightoffers/internal/credential"
)

type staticToken struct {
	token       string
	err         error
	calls       int
	invalidated int
}

func (s *staticToken) Token(ctx context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

func (s *staticToken) Invalidate() {
	s.invalidated++
}

const sampleOffer = `{"type":"flight-offer","id":"1","source":"GDS","numberOfBookableSeats":4,"itineraries":[{"duration":"PT2H10M","segments":[{"id":"1","departure":{"iataCode":"IST","at":"2025-06-01T10:00:00"},"arrival":{"iataCode":"EBL","at":"2025-06-01T12:10:00"},"carrierCode":"TK","number":"1234","operating":{"carrierCode":"TK"},"duration":"PT2H10M","numberOfStops":0,"blacklistedInEU":false}]}],"price":{"currency":"USD","total":"210.40","base":"150.00","grandTotal":"210.40"},"validatingAirlineCodes":["TK"],"travelerPricings":[{"travelerId":"1","fareOption":"STANDARD","travelerType":"ADULT","fareDetailsBySegment":[{"segmentId":"1","cabin":"ECONOMY","fareBasis":"VLOWTR","class":"V"}]}]}`

func newTestClient(srv *httptest.Server, tok *staticToken) *AmadeusClient {
	return NewAmadeusClient(ClientConfig{
		BaseURL:     srv.URL,
		Credentials: tok,
	})
}

func TestSearchFlightsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, flightOffersPath, r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "IST", q.Get("originLocationCode"))
		assert.Equal(t, "EBL", q.Get("destinationLocationCode"))
		assert.Equal(t, "2025-06-01", q.Get("departureDate"))
		assert.Equal(t, "2025-06-05", q.Get("returnDate"))
		assert.Equal(t, "2", q.Get("adults"))
		assert.Equal(t, "1", q.Get("children"))
		assert.Equal(t, "", q.Get("infants"))
		assert.Equal(t, "BUSINESS", q.Get("travelClass"))
		assert.Equal(t, "true", q.Get("nonStop"))
		assert.Equal(t, "EUR", q.Get("currencyCode"))
		assert.Equal(t, "5", q.Get("max"))
		assert.Equal(t, "TK,PC", q.Get("includedAirlineCodes"))

		fmt.Fprintf(w, `{"meta":{"count":1},"data":[%s],"dictionaries":{"carriers":{"TK":"TURKISH AIRLINES"}}}`, sampleOffer)
	}))
	defer srv.Close()

	tok := &staticToken{token: "abc"}
	resp, err := newTestClient(srv, tok).SearchFlights(context.Background(), FlightQuery{
		Origin:               "IST",
		Destination:          "EBL",
		DepartureDate:        "2025-06-01",
		ReturnDate:           "2025-06-05",
		Adults:               2,
		Children:             1,
		TravelClass:          "BUSINESS",
		NonStop:              true,
		CurrencyCode:         "EUR",
		Max:                  5,
		IncludedAirlineCodes: []string{"TK", "PC"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Meta.Count)
	assert.Equal(t, "TURKISH AIRLINES", resp.Dictionaries.Carriers["TK"])
	assert.Equal(t, "TK", resp.Data[0].Itineraries[0].Segments[0].CarrierCode)
	assert.Equal(t, 1, tok.calls)
}

func TestSearchFlightsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors":[{"status":400,"code":477,"title":"INVALID FORMAT","detail":"invalid date","source":{"parameter":"departureDate"}}]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, &staticToken{token: "abc"}).SearchFlights(context.Background(), FlightQuery{Origin: "IST", Destination: "EBL", DepartureDate: "bad", Adults: 1})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, OpFlightOffers, reqErr.Operation)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	require.Len(t, reqErr.Details, 1)
	assert.Equal(t, 477, reqErr.Details[0].Code)
	assert.Equal(t, "INVALID FORMAT - invalid date (departureDate)", reqErr.Detail())
	assert.False(t, reqErr.Retryable())
}

func TestErrorWithoutStructuredBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "upstream down")
	}))
	defer srv.Close()

	_, err := newTestClient(srv, &staticToken{token: "abc"}).SearchLocations(context.Background(), "ist", nil)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Empty(t, reqErr.Details)
	assert.Equal(t, "locations: 503 Service Unavailable", reqErr.Error())
	assert.True(t, reqErr.Retryable())
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors":[{"status":401,"code":38192,"title":"Access token expired"}]}`)
	}))
	defer srv.Close()

	tok := &staticToken{token: "stale"}
	_, err := newTestClient(srv, tok).SearchFlights(context.Background(), FlightQuery{Origin: "IST", Destination: "EBL", DepartureDate: "2025-06-01", Adults: 1})
	require.Error(t, err)
	assert.Equal(t, 1, tok.invalidated)
}

func TestTokenFailureSkipsRequest(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	tok := &staticToken{err: &credential.AuthError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}}
	_, err := newTestClient(srv, tok).SearchFlights(context.Background(), FlightQuery{Origin: "IST", Destination: "EBL", DepartureDate: "2025-06-01", Adults: 1})

	require.Error(t, err)
	assert.True(t, errors.Is(err, credential.ErrAuthentication))
	assert.Equal(t, 0, hits)
}

func TestSearchLocations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, locationsPath, r.URL.Path)
		assert.Equal(t, "ist", r.URL.Query().Get("keyword"))
		assert.Equal(t, "AIRPORT,CITY", r.URL.Query().Get("subType"))
		fmt.Fprint(w, `{"data":[{"type":"location","subType":"AIRPORT","name":"ISTANBUL AIRPORT","iataCode":"IST","address":{"cityName":"ISTANBUL","countryName":"TURKIYE"}}]}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv, &staticToken{token: "abc"}).SearchLocations(context.Background(), "ist", nil)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ISTANBUL", resp.Data[0].Address.CityName)
}

func TestPriceOfferResubmitsRawOffer(t *testing.T) {
	var offer RawOffer
	require.NoError(t, json.Unmarshal([]byte(sampleOffer), &offer))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pricingPath, r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Data struct {
				Type         string            `json:"type"`
				FlightOffers []json.RawMessage `json:"flightOffers"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "flight-offers-pricing", req.Data.Type)
		require.Len(t, req.Data.FlightOffers, 1)
		// Fields the schema does not model must survive resubmission.
		assert.Contains(t, string(req.Data.FlightOffers[0]), `"blacklistedInEU":false`)
		assert.JSONEq(t, sampleOffer, string(req.Data.FlightOffers[0]))

		fmt.Fprintf(w, `{"data":{"type":"flight-offers-pricing","flightOffers":[%s]}}`, sampleOffer)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv, &staticToken{token: "abc"}).PriceOffer(context.Background(), offer)
	require.NoError(t, err)
	require.Len(t, resp.Data.FlightOffers, 1)
	assert.Equal(t, "210.40", resp.Data.FlightOffers[0].Price.GrandTotal)
	assert.Contains(t, string(resp.Raw()), "flight-offers-pricing")
}

func TestLookupAirlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, airlinesPath, r.URL.Path)
		assert.Equal(t, "TK,PC", r.URL.Query().Get("airlineCodes"))
		fmt.Fprint(w, `{"data":[{"type":"airline","iataCode":"TK","businessName":"TURKISH AIRLINES","commonName":"Turkish Airlines"},{"iataCode":"PC","businessName":"PEGASUS"}]}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv, &staticToken{token: "abc"}).LookupAirlines(context.Background(), []string{"TK", "PC"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Turkish Airlines", resp.Data[0].DisplayName())
	assert.Equal(t, "PEGASUS", resp.Data[1].DisplayName())
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, &staticToken{token: "abc"}).SearchFlights(context.Background(), FlightQuery{Origin: "IST", Destination: "EBL", DepartureDate: "2025-06-01", Adults: 1})

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, OpFlightOffers, provErr.Operation)
}

func TestRawOfferRoundTrip(t *testing.T) {
	var offer RawOffer
	require.NoError(t, json.Unmarshal([]byte(sampleOffer), &offer))

	out, err := json.Marshal(offer)
	require.NoError(t, err)
	assert.Equal(t, sampleOffer, string(out))

	assert.Error(t, json.Unmarshal([]byte(`[null]`), &[]RawOffer{}))
}
