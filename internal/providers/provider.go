package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	OpFlightOffers = "flight-offers"
	OpLocations    = "locations"
	OpPricing      = "pricing"
	OpAirlines     = "airlines"
)

// Provider is the flight inventory API the search pipeline drives.
type Provider interface {
	SearchFlights(ctx context.Context, q FlightQuery) (*FlightOffersResponse, error)
	SearchLocations(ctx context.Context, keyword string, subTypes []string) (*LocationsResponse, error)
	PriceOffer(ctx context.Context, offer RawOffer) (*PricingResponse, error)
	LookupAirlines(ctx context.Context, codes []string) (*AirlinesResponse, error)
}

// RequestError reports a non-success response from a provider operation.
// Details holds the provider's structured error entries when the body had them.
type RequestError struct {
	Operation  string
	StatusCode int
	Status     string
	Details    []APIError
}

func (e *RequestError) Error() string {
	msg := e.Operation + ": " + e.Status
	if detail := e.Detail(); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// Detail flattens the provider error entries into one line.
func (e *RequestError) Detail() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		var b strings.Builder
		if d.Title != "" {
			b.WriteString(d.Title)
		}
		if d.Detail != "" {
			if b.Len() > 0 {
				b.WriteString(" - ")
			}
			b.WriteString(d.Detail)
		}
		if d.Source != nil && d.Source.Parameter != "" {
			fmt.Fprintf(&b, " (%s)", d.Source.Parameter)
		}
		if b.Len() > 0 {
			parts = append(parts, b.String())
		}
	}
	return strings.Join(parts, "; ")
}

// Retryable reports whether a caller with a retry budget may try again.
func (e *RequestError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ProviderError attaches the failing operation to a transport or decode error.
type ProviderError struct {
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(operation string, err error) *ProviderError {
	return &ProviderError{
		Operation: operation,
		Err:       err,
	}
}
