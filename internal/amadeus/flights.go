package amadeus

import (
	"context"
	"net/url"
	"strconv"
)

// FlightOfferQuery selects one-way offers for a route and date.
type FlightOfferQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	Adults        int
	Max           int
}

// FlightOffersResponse is the subset of the flight-offers payload we use.
type FlightOffersResponse struct {
	Data         []FlightOffer `json:"data"`
	Dictionaries Dictionaries  `json:"dictionaries"`
}

// Dictionaries carries per-response lookup tables.
type Dictionaries struct {
	Carriers map[string]string `json:"carriers"`
}

type FlightOffer struct {
	ID                    string      `json:"id"`
	NumberOfBookableSeats *int        `json:"numberOfBookableSeats,omitempty"`
	Itineraries           []Itinerary `json:"itineraries"`
	Price                 OfferPrice  `json:"price"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
}

type OfferPrice struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

// SearchFlightOffers calls GET /v2/shopping/flight-offers.
func (c *Client) SearchFlightOffers(ctx context.Context, q FlightOfferQuery) (*FlightOffersResponse, error) {
	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartureDate)
	params.Set("adults", strconv.Itoa(q.Adults))
	if q.Max > 0 {
		params.Set("max", strconv.Itoa(q.Max))
	}

	var resp FlightOffersResponse
	if err := c.get(ctx, "/v2/shopping/flight-offers", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
