package recorder

import (
	"time"

	"FareSentinel/internal/model"
)

// Cycle summarizes one pass over the watch list.
type Cycle struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Rate          float64
	RateIsLive    bool // false when the fallback rate was used
	RoutesChecked int
	OffersFound   int
	AlertsSent    int
	LogFailures   int
}

// AlertEvent records one alert attempt.
type AlertEvent struct {
	RunID       string
	Origin      string
	Alert       model.Alert
	TargetPrice float64
	Delivered   bool
	Error       string
}

// Recorder persists price history for later analysis.
type Recorder interface {
	RecordCycle(c *Cycle) error
	RecordOffers(runID string, offers []model.PriceOffer) error
	RecordAlert(evt *AlertEvent) error
	Close() error
}
