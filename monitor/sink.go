package monitor

import (
	"context"
	"fmt"

	"github.com/goliatone/go-station-inbox/core"
)

type Sink interface {
	Deliver(ctx context.Context, msg core.MonitorMessage) error
}

type SinkFunc func(ctx context.Context, msg core.MonitorMessage) error

func (f SinkFunc) Deliver(ctx context.Context, msg core.MonitorMessage) error {
	return f(ctx, msg)
}

func compactSinks(sinks []Sink) []Sink {
	out := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

func deliverAll(ctx context.Context, sinks []Sink, msg core.MonitorMessage) error {
	var deliverErr error
	for i, sink := range sinks {
		if err := sink.Deliver(ctx, msg); err != nil {
			deliverErr = joinErrors(deliverErr, fmt.Errorf("monitor: sink %d failed: %w", i, err))
		}
	}
	return deliverErr
}

func joinErrors(existing error, next error) error {
	if existing == nil {
		return next
	}
	if next == nil {
		return existing
	}
	return fmt.Errorf("%w; %v", existing, next)
}
