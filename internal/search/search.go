package search

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"FareSentinel/internal/amadeus"
	"FareSentinel/internal/model"
)

const (
	// MaxOffers caps how many offers are requested per route.
	MaxOffers = 5
	adults    = 1
)

// OfferSource is the flight-search collaborator.
type OfferSource interface {
	SearchFlightOffers(ctx context.Context, q amadeus.FlightOfferQuery) (*amadeus.FlightOffersResponse, error)
}

// CountryResolver maps a location code to a country name.
type CountryResolver interface {
	Resolve(ctx context.Context, code string) string
}

// Searcher queries the offer source and normalizes results into PriceOffers.
type Searcher struct {
	Source    OfferSource
	Countries CountryResolver
	Now       func() time.Time
}

// NewSearcher creates a Searcher stamping offers with the wall clock.
func NewSearcher(src OfferSource, countries CountryResolver) *Searcher {
	return &Searcher{Source: src, Countries: countries, Now: time.Now}
}

// Search returns up to MaxOffers offers in the order the source returned
// them. Source errors are logged and yield an empty result.
func (s *Searcher) Search(ctx context.Context, origin, destination, date string) []model.PriceOffer {
	resp, err := s.Source.SearchFlightOffers(ctx, amadeus.FlightOfferQuery{
		Origin:        origin,
		Destination:   destination,
		DepartureDate: date,
		Adults:        adults,
		Max:           MaxOffers,
	})
	if err != nil {
		log.Printf("[ERROR] search %s->%s: %v", origin, destination, err)
		return nil
	}
	if resp == nil || len(resp.Data) == 0 {
		return nil
	}

	originCountry := s.Countries.Resolve(ctx, origin)
	destCountry := s.Countries.Resolve(ctx, destination)

	offers := make([]model.PriceOffer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		price, err := parsePrice(raw.Price.Total)
		if err != nil {
			log.Printf("[WARN] skipping offer %s on %s->%s: %v", raw.ID, origin, destination, err)
			continue
		}
		code := carrierCode(raw)
		offers = append(offers, model.PriceOffer{
			Timestamp:          s.Now(),
			Origin:             origin,
			OriginCountry:      originCountry,
			Destination:        destination,
			DestinationCountry: destCountry,
			TravelDate:         date,
			Carrier:            carrierName(resp.Dictionaries.Carriers, code),
			OriginalPrice:      price,
			Currency:           raw.Price.Currency,
			Seats:              seats(raw),
		})
	}
	return offers
}

// carrierCode is the carrier of the first segment of the first itinerary.
func carrierCode(o amadeus.FlightOffer) string {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return ""
	}
	return o.Itineraries[0].Segments[0].CarrierCode
}

func carrierName(carriers map[string]string, code string) string {
	if name, ok := carriers[code]; ok && name != "" {
		return name
	}
	return code
}

func seats(o amadeus.FlightOffer) int {
	if o.NumberOfBookableSeats == nil {
		return 0
	}
	return *o.NumberOfBookableSeats
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return v, nil
}
