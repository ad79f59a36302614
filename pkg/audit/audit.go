// Package audit delivers one Interaction record per answered question to
// the organizers' monitoring channel. Delivery is fire-and-forget: sink
// failures are logged and swallowed, never surfaced to the user.
package audit

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/hackfolio/guidebot/engine/domain"
	"github.com/hackfolio/guidebot/pkg/natsutil"
)

// Sink receives interaction records.
type Sink interface {
	Log(ctx context.Context, rec domain.Interaction) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) Log(context.Context, domain.Interaction) error { return nil }

// MultiSink fans records out to several sinks. Log returns the first error
// but still delivers to every sink.
type MultiSink []Sink

func (m MultiSink) Log(ctx context.Context, rec domain.Interaction) error {
	var firstErr error
	for _, s := range m {
		if err := s.Log(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SubjectInteractions is the NATS subject interaction records are
// published on.
const SubjectInteractions = "guidebot.audit"

// NATSSink publishes interaction records to NATS for downstream consumers.
type NATSSink struct {
	nc *nats.Conn
}

// NewNATSSink creates a NATSSink over an existing connection.
func NewNATSSink(nc *nats.Conn) *NATSSink {
	return &NATSSink{nc: nc}
}

func (s *NATSSink) Log(ctx context.Context, rec domain.Interaction) error {
	return natsutil.Publish(ctx, s.nc, SubjectInteractions, rec)
}

// Async wraps a sink so Log never blocks the caller: delivery runs in a
// goroutine detached from request cancellation, and errors only reach the
// logger.
func Async(sink Sink, logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return asyncSink{sink: sink, logger: logger}
}

type asyncSink struct {
	sink   Sink
	logger *slog.Logger
}

func (a asyncSink) Log(ctx context.Context, rec domain.Interaction) error {
	go func(ctx context.Context) {
		if err := a.sink.Log(ctx, rec); err != nil {
			a.logger.Warn("audit: delivery failed", "platform", rec.Platform, "error", err)
		}
	}(context.WithoutCancel(ctx))
	return nil
}
