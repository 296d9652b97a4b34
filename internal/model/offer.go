package model

import (
	"math"
	"time"
)

// HomeCurrency is the currency targets and converted prices are expressed in.
const HomeCurrency = "BRL"

// TimestampLayout is the layout used for offer timestamps in the price log.
const TimestampLayout = "2006-01-02 15:04:05"

// WatchItem is a route under watch with its target price in home currency.
type WatchItem struct {
	Origin      string  `yaml:"origin"`
	Destination string  `yaml:"destination"`
	Date        string  `yaml:"date"` // ISO 8601, e.g. 2026-05-15
	TargetPrice float64 `yaml:"target_price"`
}

// Route formats the item as "GRU -> CDG".
func (w WatchItem) Route() string {
	return w.Origin + " -> " + w.Destination
}

// PriceOffer is one normalized search result for a route.
type PriceOffer struct {
	Timestamp          time.Time
	Origin             string
	OriginCountry      string
	Destination        string
	DestinationCountry string
	TravelDate         string
	Carrier            string
	OriginalPrice      float64
	Currency           string
	HomePrice          float64
	Seats              int
}

// WithHomePrice returns a copy of the offer with HomePrice set to the
// original price converted at rate, rounded to 2 decimals.
func (o PriceOffer) WithHomePrice(rate float64) PriceOffer {
	o.HomePrice = ConvertPrice(o.OriginalPrice, rate)
	return o
}

// ConvertPrice multiplies price by rate and rounds to cents.
func ConvertPrice(price, rate float64) float64 {
	return math.Round(price*rate*100) / 100
}
