package models

import (
	"strings"

	"github.com/dharmasatrya/flightoffers/internal/providers"
)

// CarrierDictionary maps an uppercase IATA carrier code to a display name.
type CarrierDictionary map[string]string

// Merge adds every entry of src with a non-empty name that d does not
// already hold, keyed by the uppercase code. Existing entries are never
// overwritten.
func (d CarrierDictionary) Merge(src map[string]string) {
	for code, name := range src {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || name == "" {
			continue
		}
		if existing := d[code]; existing != "" {
			continue
		}
		d[code] = name
	}
}

func (d CarrierDictionary) Clone() CarrierDictionary {
	out := make(CarrierDictionary, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

type FlightPoint struct {
	Time    string `json:"time"`
	Airport string `json:"airport"`
	Date    string `json:"date"`
}

// NormalizedOffer is the flat, display-ready view of one provider offer.
type NormalizedOffer struct {
	ID                   int                `json:"id"`
	OfferID              string             `json:"offerId"`
	Airline              string             `json:"airline"`
	AirlineLogo          string             `json:"airlineLogo"`
	CarrierCode          string             `json:"carrierCode"`
	OperatingCarrierCode string             `json:"operatingCarrierCode,omitempty"`
	FlightNumber         string             `json:"flightNumber"`
	Departure            FlightPoint        `json:"departure"`
	Arrival              FlightPoint        `json:"arrival"`
	Duration             string             `json:"duration"`
	DurationMinutes      int                `json:"durationMinutes"`
	Stops                string             `json:"stops"`
	StopCount            int                `json:"stopCount"`
	Price                float64            `json:"price"`
	Currency             string             `json:"currency"`
	FormattedPrice       string             `json:"formattedPrice"`
	CabinClass           string             `json:"cabinClass"`
	SeatsLeft            string             `json:"seatsLeft"`
	BestValueScore       float64            `json:"bestValueScore,omitempty"`
	RawOffer             providers.RawOffer `json:"rawOffer"`
}

type NormalizedLocation struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Country     string `json:"country"`
	DisplayText string `json:"displayText"`
}

type LegResult struct {
	Segment Leg               `json:"segment"`
	Offers  []NormalizedOffer `json:"offers"`
	Meta    Meta              `json:"meta"`
}
