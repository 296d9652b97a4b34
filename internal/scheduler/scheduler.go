package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"FareSentinel/internal/model"
	"FareSentinel/internal/notifier"
	"FareSentinel/internal/pricelog"
	"FareSentinel/internal/recorder"
)

// RateSource returns the EUR rate for the cycle and whether it is live.
type RateSource interface {
	Rate(ctx context.Context) (float64, bool)
}

// OfferSearcher returns offers for a route, empty on failure.
type OfferSearcher interface {
	Search(ctx context.Context, origin, destination, date string) []model.PriceOffer
}

// OfferLog appends converted offers to the durable log.
type OfferLog interface {
	Append(offers []model.PriceOffer) error
}

// Alerter delivers a price alert.
type Alerter interface {
	Notify(ctx context.Context, a model.Alert) error
}

// Scheduler runs the polling loop: one exchange rate per cycle, then every
// watch item in order, sleeping RouteDelay after each route and until the
// next Schedule activation after each cycle.
type Scheduler struct {
	Watchlist  []model.WatchItem
	Rates      RateSource
	Searcher   OfferSearcher
	Log        OfferLog
	Notifier   Alerter
	Recorder   recorder.Recorder
	Schedule   cron.Schedule
	RouteDelay time.Duration

	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// NewScheduler creates a Scheduler. cycleSpec is a standard cron spec or
// descriptor such as "@every 1h".
func NewScheduler(watchlist []model.WatchItem, rates RateSource, searcher OfferSearcher, offerLog OfferLog,
	alerter Alerter, rec recorder.Recorder, cycleSpec string, routeDelay time.Duration) (*Scheduler, error) {
	sched, err := cron.ParseStandard(cycleSpec)
	if err != nil {
		return nil, fmt.Errorf("parse cycle schedule %q: %w", cycleSpec, err)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Watchlist:  watchlist,
		Rates:      rates,
		Searcher:   searcher,
		Log:        offerLog,
		Notifier:   alerter,
		Recorder:   rec,
		Schedule:   sched,
		RouteDelay: routeDelay,
		Sleep:      sleepContext,
		Now:        time.Now,
	}, nil
}

// Run executes cycles until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.RunCycle(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.Now()
		next := s.Schedule.Next(now)
		log.Printf("[INFO] waiting until %s for the next cycle", next.Format("2006-01-02 15:04:05"))
		if err := s.Sleep(ctx, next.Sub(now)); err != nil {
			return err
		}
	}
}

// RunCycle checks every watch item once and returns the cycle summary.
func (s *Scheduler) RunCycle(ctx context.Context) *recorder.Cycle {
	c := &recorder.Cycle{
		RunID:     uuid.NewString(),
		StartedAt: s.Now(),
	}
	log.Printf("[INFO] cycle %s: checking %d routes", c.RunID, len(s.Watchlist))

	c.Rate, c.RateIsLive = s.Rates.Rate(ctx)
	log.Printf("[INFO] exchange rate: %s %.4f per EUR", model.HomeCurrency, c.Rate)

	for _, item := range s.Watchlist {
		if ctx.Err() != nil {
			break
		}
		s.checkRoute(ctx, c, item)
		if err := s.Sleep(ctx, s.RouteDelay); err != nil {
			break
		}
	}

	c.FinishedAt = s.Now()
	log.Printf("[INFO] cycle %s done: %d routes, %d offers, %d alerts, %d log failures",
		c.RunID, c.RoutesChecked, c.OffersFound, c.AlertsSent, c.LogFailures)
	if err := s.Recorder.RecordCycle(c); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
	return c
}

func (s *Scheduler) checkRoute(ctx context.Context, c *recorder.Cycle, item model.WatchItem) {
	c.RoutesChecked++
	log.Printf("[INFO] checking %s for %s", item.Route(), item.Date)

	offers := s.Searcher.Search(ctx, item.Origin, item.Destination, item.Date)
	if len(offers) == 0 {
		log.Printf("[INFO]   no offers for %s", item.Route())
		return
	}
	c.OffersFound += len(offers)

	for i := range offers {
		if offers[i].Currency != "EUR" {
			log.Printf("[WARN]   offer quoted in %s, converting at the EUR rate", offers[i].Currency)
		}
		offers[i] = offers[i].WithHomePrice(c.Rate)
	}

	if err := s.Log.Append(offers); err != nil {
		c.LogFailures++
		if errors.Is(err, pricelog.ErrLocked) {
			log.Printf("[WARN]   price log is open in another program, %d rows for %s dropped this cycle: %v",
				len(offers), item.Route(), err)
		} else {
			log.Printf("[ERROR]   unexpected error saving price log: %v", err)
		}
	}
	if err := s.Recorder.RecordOffers(c.RunID, offers); err != nil {
		log.Printf("[ERROR] record offers: %v", err)
	}

	// Best is the first offer in source order; offers are not re-sorted.
	best := offers[0].HomePrice
	log.Printf("[INFO]   best price: %s %s (target %s)", model.HomeCurrency,
		notifier.FormatMoney(best), notifier.FormatMoney(item.TargetPrice))

	if best <= item.TargetPrice {
		log.Printf("[INFO]   target reached for %s!", item.Destination)
		s.tryNotify(ctx, c, item, model.Alert{
			Price:       best,
			Currency:    model.HomeCurrency,
			Destination: item.Destination,
			Date:        item.Date,
		})
	}
}

func (s *Scheduler) tryNotify(ctx context.Context, c *recorder.Cycle, item model.WatchItem, a model.Alert) {
	evt := &recorder.AlertEvent{
		RunID:       c.RunID,
		Origin:      item.Origin,
		Alert:       a,
		TargetPrice: item.TargetPrice,
	}
	if err := s.Notifier.Notify(ctx, a); err != nil {
		log.Printf("[ERROR] send alert email: %v", err)
		evt.Error = err.Error()
	} else {
		log.Printf("[INFO]   alert sent: %s %s is at or below target", a.Currency, notifier.FormatMoney(a.Price))
		evt.Delivered = true
		c.AlertsSent++
	}
	if err := s.Recorder.RecordAlert(evt); err != nil {
		log.Printf("[ERROR] record alert: %v", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
