package recorder

import "FareSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ *Cycle) error {
	return nil
}

func (n *NoopRecorder) RecordOffers(_ string, _ []model.PriceOffer) error {
	return nil
}

func (n *NoopRecorder) RecordAlert(_ *AlertEvent) error {
	return nil
}

func (n *NoopRecorder) Close() error {
	return nil
}
