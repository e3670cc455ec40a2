package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/providers"
	"github.com/dharmasatrya/flightoffers/internal/timeutil"
	"github.com/dharmasatrya/flightoffers/pkg/currency"
)

const (
	// DefaultSeatsLeft stands in when the provider omits the bookable seat count.
	DefaultSeatsLeft = 9

	logoURLTemplate = "https://pics.avs.io/200/80/%s.png"
)

var (
	ErrNoItineraries = errors.New("offer has no itineraries")
	ErrNoSegments    = errors.New("itinerary has no segments")
	ErrInvalidPrice  = errors.New("offer price is not a valid amount")
)

var cabinLabels = map[string]string{
	"ECONOMY":         "Economy",
	"PREMIUM_ECONOMY": "Premium Economy",
	"BUSINESS":        "Business",
	"FIRST":           "First Class",
}

// Offer flattens one provider offer into its display row. The first
// itinerary stands for the offer: its first segment gives the departure and
// its last segment the arrival, so a connection is one row.
func Offer(raw providers.RawOffer, ordinal int, carriers models.CarrierDictionary) (models.NormalizedOffer, error) {
	if len(raw.Itineraries) == 0 {
		return models.NormalizedOffer{}, fmt.Errorf("offer %s: %w", raw.ID, ErrNoItineraries)
	}
	itinerary := raw.Itineraries[0]
	if len(itinerary.Segments) == 0 {
		return models.NormalizedOffer{}, fmt.Errorf("offer %s: %w", raw.ID, ErrNoSegments)
	}
	first := itinerary.Segments[0]
	last := itinerary.Segments[len(itinerary.Segments)-1]

	departure, err := flightPoint(first.Departure)
	if err != nil {
		return models.NormalizedOffer{}, fmt.Errorf("offer %s departure: %w", raw.ID, err)
	}
	arrival, err := flightPoint(last.Arrival)
	if err != nil {
		return models.NormalizedOffer{}, fmt.Errorf("offer %s arrival: %w", raw.ID, err)
	}

	hours, minutes := 0, 0
	if itinerary.Duration != "" {
		hours, minutes, err = timeutil.ParseDuration(itinerary.Duration)
		if err != nil {
			return models.NormalizedOffer{}, fmt.Errorf("offer %s: %w", raw.ID, err)
		}
	}

	amount, err := parseAmount(raw.Price)
	if err != nil {
		return models.NormalizedOffer{}, fmt.Errorf("offer %s: %w", raw.ID, err)
	}

	code := strings.ToUpper(first.CarrierCode)
	operating := ""
	if first.Operating != nil {
		operating = strings.ToUpper(first.Operating.CarrierCode)
	}

	stopCount := len(itinerary.Segments) - 1

	return models.NormalizedOffer{
		ID:                   ordinal,
		OfferID:              raw.ID,
		Airline:              AirlineName(code, carriers),
		AirlineLogo:          LogoURL(code),
		CarrierCode:          code,
		OperatingCarrierCode: operating,
		FlightNumber:         code + first.Number,
		Departure:            departure,
		Arrival:              arrival,
		Duration:             timeutil.FormatDuration(hours, minutes),
		DurationMinutes:      hours*60 + minutes,
		Stops:                StopsLabel(stopCount),
		StopCount:            stopCount,
		Price:                amount,
		Currency:             raw.Price.Currency,
		FormattedPrice:       currency.Format(amount, raw.Price.Currency),
		CabinClass:           CabinLabel(firstCabin(raw)),
		SeatsLeft:            SeatsLabel(raw.NumberOfBookableSeats),
		RawOffer:             raw,
	}, nil
}

// AirlineName falls back to the carrier code when the dictionary has no name.
func AirlineName(code string, carriers models.CarrierDictionary) string {
	if name := carriers[code]; name != "" {
		return name
	}
	return code
}

func LogoURL(code string) string {
	return fmt.Sprintf(logoURLTemplate, code)
}

func StopsLabel(stops int) string {
	switch {
	case stops <= 0:
		return "Direct"
	case stops == 1:
		return "1 Stop"
	default:
		return strconv.Itoa(stops) + " Stops"
	}
}

func CabinLabel(cabin string) string {
	if label, ok := cabinLabels[strings.ToUpper(cabin)]; ok {
		return label
	}
	return cabinLabels["ECONOMY"]
}

func SeatsLabel(seats int) string {
	if seats <= 0 {
		seats = DefaultSeatsLeft
	}
	if seats == 1 {
		return "1 seat left"
	}
	return strconv.Itoa(seats) + " seats left"
}

func firstCabin(raw providers.RawOffer) string {
	if len(raw.TravelerPricings) == 0 {
		return ""
	}
	details := raw.TravelerPricings[0].FareDetailsBySegment
	if len(details) == 0 {
		return ""
	}
	return details[0].Cabin
}

func flightPoint(ep providers.FlightEndpoint) (models.FlightPoint, error) {
	at, err := timeutil.ParseTimestamp(ep.At)
	if err != nil {
		return models.FlightPoint{}, err
	}
	return models.FlightPoint{
		Time:    timeutil.Clock(at),
		Airport: ep.IATACode,
		Date:    timeutil.Date(at),
	}, nil
}

// parseAmount reads the offer total, falling back to grandTotal.
func parseAmount(p providers.OfferPrice) (float64, error) {
	s := p.Total
	if s == "" {
		s = p.GrandTotal
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return amount, nil
}
