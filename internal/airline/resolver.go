package airline

import (
	"context"
	"sort"
	"strings"

	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/providers"
)

const DefaultBatchSize = 20

// Lookup is the reference-data call used to name carriers.
type Lookup interface {
	LookupAirlines(ctx context.Context, codes []string) (*providers.AirlinesResponse, error)
}

// Resolver backfills carrier names the offers response left out.
type Resolver struct {
	lookup    Lookup
	batchSize int
}

func NewResolver(lookup Lookup, batchSize int) *Resolver {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Resolver{
		lookup:    lookup,
		batchSize: batchSize,
	}
}

// ResolveMissing looks up every code in inUse that known lacks a name and
// returns known extended with the names that came back. known itself is not
// modified. Codes the lookup cannot name stay absent. When nothing is missing
// no call is made and known is returned as is.
//
// On a lookup error the names gathered from earlier batches are returned
// alongside the error.
func (r *Resolver) ResolveMissing(ctx context.Context, inUse []string, known models.CarrierDictionary) (models.CarrierDictionary, error) {
	missing := MissingCodes(inUse, known)
	if len(missing) == 0 {
		return known, nil
	}

	resolved := known.Clone()
	for start := 0; start < len(missing); start += r.batchSize {
		end := start + r.batchSize
		if end > len(missing) {
			end = len(missing)
		}

		resp, err := r.lookup.LookupAirlines(ctx, missing[start:end])
		if err != nil {
			return resolved, err
		}

		names := make(map[string]string, len(resp.Data))
		for _, a := range resp.Data {
			names[strings.ToUpper(a.IATACode)] = a.DisplayName()
		}
		resolved.Merge(names)
	}
	return resolved, nil
}

// MissingCodes returns the distinct, sorted codes of inUse without a name in
// known.
func MissingCodes(inUse []string, known models.CarrierDictionary) []string {
	seen := make(map[string]bool, len(inUse))
	var missing []string
	for _, code := range inUse {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		if known[code] == "" {
			missing = append(missing, code)
		}
	}
	sort.Strings(missing)
	return missing
}

// CodesInUse collects the marketing and operating carrier codes of every
// segment of every offer.
func CodesInUse(offers []providers.RawOffer) []string {
	var codes []string
	for _, o := range offers {
		for _, it := range o.Itineraries {
			for _, seg := range it.Segments {
				codes = append(codes, seg.CarrierCode)
				if seg.Operating != nil {
					codes = append(codes, seg.Operating.CarrierCode)
				}
			}
		}
	}
	return codes
}
