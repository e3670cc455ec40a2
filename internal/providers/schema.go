package providers

import (
	"encoding/json"
	"errors"
)

type FlightOffersResponse struct {
	Data         []RawOffer    `json:"data"`
	Dictionaries *Dictionaries `json:"dictionaries,omitempty"`
	Meta         ResponseMeta  `json:"meta"`
}

type Dictionaries struct {
	Carriers  map[string]string          `json:"carriers,omitempty"`
	Aircraft  map[string]string          `json:"aircraft,omitempty"`
	Locations map[string]json.RawMessage `json:"locations,omitempty"`
}

type ResponseMeta struct {
	Count int               `json:"count"`
	Links map[string]string `json:"links,omitempty"`
}

// RawOffer is a flight offer as the provider issued it. The fields needed for
// display are decoded into Offer; the original bytes are kept so the offer can
// be resubmitted for pricing exactly as received.
type RawOffer struct {
	Offer
	raw json.RawMessage
}

type Offer struct {
	Type                  string            `json:"type"`
	ID                    string            `json:"id"`
	Source                string            `json:"source"`
	OneWay                bool              `json:"oneWay"`
	LastTicketingDate     string            `json:"lastTicketingDate"`
	NumberOfBookableSeats int               `json:"numberOfBookableSeats"`
	Itineraries           []Itinerary       `json:"itineraries"`
	Price                 OfferPrice        `json:"price"`
	ValidatingAirline     []string          `json:"validatingAirlineCodes"`
	TravelerPricings      []TravelerPricing `json:"travelerPricings"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	ID            string         `json:"id"`
	Departure     FlightEndpoint `json:"departure"`
	Arrival       FlightEndpoint `json:"arrival"`
	CarrierCode   string         `json:"carrierCode"`
	Number        string         `json:"number"`
	Aircraft      *AircraftRef   `json:"aircraft,omitempty"`
	Operating     *OperatingRef  `json:"operating,omitempty"`
	Duration      string         `json:"duration"`
	NumberOfStops int            `json:"numberOfStops"`
}

type FlightEndpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

type AircraftRef struct {
	Code string `json:"code"`
}

type OperatingRef struct {
	CarrierCode string `json:"carrierCode"`
}

type OfferPrice struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	Base       string `json:"base"`
	GrandTotal string `json:"grandTotal"`
}

type TravelerPricing struct {
	TravelerID           string               `json:"travelerId"`
	FareOption           string               `json:"fareOption"`
	TravelerType         string               `json:"travelerType"`
	FareDetailsBySegment []FareDetailsSegment `json:"fareDetailsBySegment"`
}

type FareDetailsSegment struct {
	SegmentID string `json:"segmentId"`
	Cabin     string `json:"cabin"`
	FareBasis string `json:"fareBasis"`
	Class     string `json:"class"`
}

var errEmptyOffer = errors.New("flight offer is empty")

func (o *RawOffer) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return errEmptyOffer
	}
	if err := json.Unmarshal(data, &o.Offer); err != nil {
		return err
	}
	o.raw = append(o.raw[:0], data...)
	return nil
}

// MarshalJSON returns the provider's bytes when available so resubmission
// never drops fields this package does not model.
func (o RawOffer) MarshalJSON() ([]byte, error) {
	if len(o.raw) > 0 {
		return o.raw, nil
	}
	return json.Marshal(o.Offer)
}

// Raw returns a copy of the bytes the provider sent.
func (o RawOffer) Raw() json.RawMessage {
	return append(json.RawMessage(nil), o.raw...)
}

type LocationsResponse struct {
	Data []RawLocation `json:"data"`
	Meta ResponseMeta  `json:"meta"`
}

type RawLocation struct {
	Type     string          `json:"type"`
	SubType  string          `json:"subType"`
	Name     string          `json:"name"`
	Detailed string          `json:"detailedName"`
	IATACode string          `json:"iataCode"`
	Address  LocationAddress `json:"address"`
}

type LocationAddress struct {
	CityName    string `json:"cityName"`
	CityCode    string `json:"cityCode"`
	CountryName string `json:"countryName"`
	CountryCode string `json:"countryCode"`
}

type AirlinesResponse struct {
	Data []RawAirline `json:"data"`
}

type RawAirline struct {
	Type         string `json:"type"`
	IATACode     string `json:"iataCode"`
	ICAOCode     string `json:"icaoCode"`
	BusinessName string `json:"businessName"`
	CommonName   string `json:"commonName"`
}

// DisplayName prefers the common name over the registered business name.
func (a RawAirline) DisplayName() string {
	if a.CommonName != "" {
		return a.CommonName
	}
	return a.BusinessName
}

type PricingResponse struct {
	Data         PricingData   `json:"data"`
	Dictionaries *Dictionaries `json:"dictionaries,omitempty"`
	raw          json.RawMessage
}

type PricingData struct {
	Type         string     `json:"type"`
	FlightOffers []RawOffer `json:"flightOffers"`
}

func (p *PricingResponse) UnmarshalJSON(data []byte) error {
	type alias PricingResponse
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PricingResponse(a)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the full pricing payload as received.
func (p PricingResponse) Raw() json.RawMessage {
	return append(json.RawMessage(nil), p.raw...)
}

type pricingRequest struct {
	Data pricingRequestData `json:"data"`
}

type pricingRequestData struct {
	Type         string     `json:"type"`
	FlightOffers []RawOffer `json:"flightOffers"`
}

type errorResponse struct {
	Errors []APIError `json:"errors"`
}

// APIError is one entry of the provider's structured error body.
type APIError struct {
	Status int             `json:"status"`
	Code   int             `json:"code"`
	Title  string          `json:"title"`
	Detail string          `json:"detail"`
	Source *APIErrorSource `json:"source,omitempty"`
}

type APIErrorSource struct {
	Parameter string `json:"parameter,omitempty"`
	Pointer   string `json:"pointer,omitempty"`
	Example   string `json:"example,omitempty"`
}
