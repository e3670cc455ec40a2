package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultMaxResults  = 20
	MaxResultsLimit    = 250
	MaxSeatedTravelers = 9
	MinKeywordLength   = 2
)

type Mode string

const (
	ModeSingle     Mode = "Single"
	ModeMultipoint Mode = "Multipoint"
)

var travelClasses = map[string]bool{
	"ECONOMY":         true,
	"PREMIUM_ECONOMY": true,
	"BUSINESS":        true,
	"FIRST":           true,
}

// Leg is one origin/destination hop of a multipoint itinerary.
type Leg struct {
	Origin        string `json:"originLocationCode"`
	Destination   string `json:"destinationLocationCode"`
	DepartureDate string `json:"departureDate"`
}

// UnmarshalJSON accepts both the long field names and the from/to shorthand.
func (l *Leg) UnmarshalJSON(data []byte) error {
	var raw struct {
		Origin        string `json:"originLocationCode"`
		From          string `json:"from"`
		Destination   string `json:"destinationLocationCode"`
		To            string `json:"to"`
		DepartureDate string `json:"departureDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	l.Origin = raw.Origin
	if l.Origin == "" {
		l.Origin = raw.From
	}
	l.Destination = raw.Destination
	if l.Destination == "" {
		l.Destination = raw.To
	}
	l.DepartureDate = raw.DepartureDate
	return nil
}

type SearchRequest struct {
	Origin               string   `json:"originLocationCode,omitempty"`
	Destination          string   `json:"destinationLocationCode,omitempty"`
	DepartureDate        string   `json:"departureDate,omitempty"`
	ReturnDate           string   `json:"returnDate,omitempty"`
	Segments             []Leg    `json:"segments,omitempty"`
	Adults               int      `json:"adults"`
	Children             int      `json:"children,omitempty"`
	Infants              int      `json:"infants,omitempty"`
	TravelClass          string   `json:"travelClass,omitempty"`
	NonStop              bool     `json:"nonStop,omitempty"`
	CurrencyCode         string   `json:"currencyCode,omitempty"`
	MaxResults           int      `json:"maxResults,omitempty"`
	IncludedAirlineCodes []string `json:"includedAirlineCodes,omitempty"`
	SortBy               string   `json:"sortBy,omitempty"`
	SortOrder            string   `json:"sortOrder,omitempty"`
}

// Mode reports which search shape the request uses. Any segments at all make
// it a multipoint request, which Validate then requires to have two or more.
func (r *SearchRequest) Mode() Mode {
	if len(r.Segments) > 0 {
		return ModeMultipoint
	}
	return ModeSingle
}

// Validate rejects malformed requests and fills defaults in place.
func (r *SearchRequest) Validate(defaultCurrency string) error {
	if r.Mode() == ModeMultipoint {
		if len(r.Segments) < 2 {
			return ErrTooFewSegments
		}
		for i := range r.Segments {
			if err := r.Segments[i].validate(i); err != nil {
				return err
			}
		}
	} else {
		r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
		r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
		r.DepartureDate = strings.TrimSpace(r.DepartureDate)

		if r.Origin == "" && r.Destination == "" && r.DepartureDate == "" {
			return ErrMissingRoute
		}
		if r.Origin == "" {
			return ErrMissingOrigin
		}
		if r.Destination == "" {
			return ErrMissingDestination
		}
		if r.DepartureDate == "" {
			return ErrMissingDepartureDate
		}
	}

	if r.Adults <= 0 {
		r.Adults = 1
	}
	if r.Children < 0 {
		return ErrNegativeChildren
	}
	if r.Infants < 0 {
		return ErrNegativeInfants
	}
	if r.Infants > r.Adults {
		return ErrTooManyInfants
	}
	if r.Adults+r.Children > MaxSeatedTravelers {
		return ErrTooManyTravelers
	}

	if r.TravelClass != "" {
		r.TravelClass = strings.ToUpper(strings.TrimSpace(r.TravelClass))
		if !travelClasses[r.TravelClass] {
			return ErrInvalidTravelClass
		}
	}

	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MaxResults < 1 || r.MaxResults > MaxResultsLimit {
		return ErrInvalidMaxResults
	}

	if r.CurrencyCode == "" {
		r.CurrencyCode = defaultCurrency
	}
	r.CurrencyCode = strings.ToUpper(r.CurrencyCode)

	for i, code := range r.IncludedAirlineCodes {
		r.IncludedAirlineCodes[i] = strings.ToUpper(strings.TrimSpace(code))
	}

	r.SortOrder = strings.ToLower(r.SortOrder)
	return nil
}

func (l *Leg) validate(i int) error {
	l.Origin = strings.ToUpper(strings.TrimSpace(l.Origin))
	l.Destination = strings.ToUpper(strings.TrimSpace(l.Destination))
	l.DepartureDate = strings.TrimSpace(l.DepartureDate)

	if l.Origin == "" {
		return ValidationError(fmt.Sprintf("segments[%d]: origin is required", i))
	}
	if l.Destination == "" {
		return ValidationError(fmt.Sprintf("segments[%d]: destination is required", i))
	}
	if l.DepartureDate == "" {
		return ValidationError(fmt.Sprintf("segments[%d]: departureDate is required", i))
	}
	return nil
}

// ValidateKeyword checks a location search keyword.
func ValidateKeyword(keyword string) error {
	if len([]rune(strings.TrimSpace(keyword))) < MinKeywordLength {
		return ErrShortKeyword
	}
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingRoute         ValidationError = "either originLocationCode, destinationLocationCode and departureDate or at least two segments are required"
	ErrMissingOrigin        ValidationError = "originLocationCode is required"
	ErrMissingDestination   ValidationError = "destinationLocationCode is required"
	ErrMissingDepartureDate ValidationError = "departureDate is required"
	ErrTooFewSegments       ValidationError = "a multipoint search needs at least two segments"
	ErrNegativeChildren     ValidationError = "children must not be negative"
	ErrNegativeInfants      ValidationError = "infants must not be negative"
	ErrTooManyInfants       ValidationError = "infants must not outnumber adults"
	ErrTooManyTravelers     ValidationError = "adults and children together must not exceed 9"
	ErrInvalidTravelClass   ValidationError = "travelClass must be one of ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST"
	ErrInvalidMaxResults    ValidationError = "maxResults must be between 1 and 250"
	ErrShortKeyword         ValidationError = "keyword must be at least 2 characters"
	ErrMissingOffer         ValidationError = "flightOffer is required"
)
