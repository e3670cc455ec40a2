package normalize

import (
	"fmt"

	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/providers"
)

func Location(raw providers.RawLocation) models.NormalizedLocation {
	loc := models.NormalizedLocation{
		Code:    raw.IATACode,
		Name:    raw.Name,
		City:    raw.Address.CityName,
		Country: raw.Address.CountryName,
	}
	loc.DisplayText = fmt.Sprintf("%s - %s, %s, %s", loc.Code, loc.Name, loc.City, loc.Country)
	return loc
}
