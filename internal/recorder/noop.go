package recorder

import "coinsentry/internal/model"

// NoopRecorder is used when no database path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTick(_ *model.TickOutcome) error { return nil }
func (n *NoopRecorder) RecordTrade(_ *Trade) error            { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
