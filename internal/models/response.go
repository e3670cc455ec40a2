package models

import "encoding/json"

type Meta struct {
	Count    int    `json:"count"`
	SearchID string `json:"searchId,omitempty"`
	CacheHit bool   `json:"cacheHit,omitempty"`
	TookMs   int64  `json:"tookMs,omitempty"`
}

// SearchResult is what one search produces: Offers for a single route, Legs
// in request order for a multipoint itinerary.
type SearchResult struct {
	Mode     Mode              `json:"mode"`
	Offers   []NormalizedOffer `json:"offers,omitempty"`
	Legs     []LegResult       `json:"legs,omitempty"`
	Carriers CarrierDictionary `json:"carriers"`
	Meta     Meta              `json:"meta"`
}

type Dictionaries struct {
	Carriers CarrierDictionary `json:"carriers"`
}

type SearchResponse struct {
	Success      bool              `json:"success"`
	Data         []NormalizedOffer `json:"data"`
	Meta         Meta              `json:"meta"`
	Dictionaries Dictionaries      `json:"dictionaries"`
}

type MultipointData struct {
	Mode Mode        `json:"mode"`
	Legs []LegResult `json:"legs"`
}

type MultipointResponse struct {
	Success      bool           `json:"success"`
	Data         MultipointData `json:"data"`
	Meta         Meta           `json:"meta"`
	Dictionaries Dictionaries   `json:"dictionaries"`
}

type LocationsResponse struct {
	Success bool                 `json:"success"`
	Data    []NormalizedLocation `json:"data"`
}

type PricingResult struct {
	Offers   []NormalizedOffer `json:"offers"`
	Carriers CarrierDictionary `json:"-"`
	Raw      json.RawMessage   `json:"-"`
}

type PricingData struct {
	Offers []NormalizedOffer `json:"offers"`
	Raw    json.RawMessage   `json:"raw"`
}

type PricingResponse struct {
	Success      bool         `json:"success"`
	Data         PricingData  `json:"data"`
	Dictionaries Dictionaries `json:"dictionaries"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
	Code    int    `json:"code"`
}
