package monitor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-station-inbox/core"
)

func DefaultDispatcherConfig() core.MonitorConfig {
	return core.DefaultConfig().Monitor
}

// Dispatcher drains the outbox into its sinks. Delivery is at least once: a
// message that fails on one sink is retried on all of them.
type Dispatcher struct {
	store    OutboxStore
	sinks    []Sink
	config   core.MonitorConfig
	logger   core.Logger
	redactor *Redactor
	now      func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(logger core.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRedactor scrubs sink credentials from errors before they are persisted
// or logged.
func WithRedactor(redactor *Redactor) DispatcherOption {
	return func(d *Dispatcher) {
		if redactor != nil {
			d.redactor = redactor
		}
	}
}

func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func NewDispatcher(store OutboxStore, sinks []Sink, config core.MonitorConfig, opts ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("monitor: outbox store is required")
	}
	sinks = compactSinks(sinks)
	if len(sinks) == 0 {
		return nil, fmt.Errorf("monitor: at least one sink is required")
	}
	defaults := DefaultDispatcherConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	_, logger := glog.Resolve("inbox.monitor", nil, nil)
	d := &Dispatcher{
		store:    store,
		sinks:    sinks,
		config:   config,
		logger:   glog.Ensure(logger),
		redactor: NewRedactor(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

func (d *Dispatcher) DispatchPending(ctx context.Context, batchSize int) (core.DispatchStats, error) {
	if d == nil || d.store == nil {
		return core.DispatchStats{}, fmt.Errorf("monitor: dispatcher is not configured")
	}
	limit := batchSize
	if limit <= 0 {
		limit = d.config.BatchSize
	}
	messages, err := d.store.ClaimBatch(ctx, limit)
	if err != nil {
		return core.DispatchStats{}, err
	}

	stats := core.DispatchStats{Claimed: len(messages)}
	var dispatchErr error
	for _, msg := range messages {
		if err := deliverAll(ctx, d.sinks, msg.MonitorMessage()); err != nil {
			err = d.redactor.Error(err)
			if retryErr := d.retry(ctx, msg, err); retryErr != nil {
				dispatchErr = joinErrors(dispatchErr, retryErr)
			}
			if msg.Attempts+1 >= d.config.MaxAttempts {
				stats.Failed++
				d.logger.Error("monitor message dropped", "message_id", msg.ID, "attempts", msg.Attempts+1, "error", err.Error())
			} else {
				stats.Retried++
				d.logger.Warn("monitor message delivery failed", "message_id", msg.ID, "attempts", msg.Attempts+1, "error", err.Error())
			}
			dispatchErr = joinErrors(dispatchErr, err)
			continue
		}
		if err := d.store.Ack(ctx, strings.TrimSpace(msg.ID)); err != nil {
			dispatchErr = joinErrors(dispatchErr, err)
			continue
		}
		stats.Delivered++
	}
	if stats.Claimed > 0 {
		d.logger.Info("monitor outbox dispatched",
			"claimed", stats.Claimed,
			"delivered", stats.Delivered,
			"retried", stats.Retried,
			"failed", stats.Failed,
		)
	}
	return stats, dispatchErr
}

func (d *Dispatcher) retry(ctx context.Context, msg Message, cause error) error {
	attempt := msg.Attempts
	if attempt < 0 {
		attempt = 0
	}
	if attempt+1 >= d.config.MaxAttempts {
		return d.store.Retry(ctx, strings.TrimSpace(msg.ID), cause, time.Time{})
	}
	return d.store.Retry(ctx, strings.TrimSpace(msg.ID), cause, d.now().Add(d.nextBackoffDelay(attempt+1)))
}

func (d *Dispatcher) nextBackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	next := time.Duration(float64(d.config.InitialBackoff) * math.Pow(2, float64(attempt-1)))
	if next < 0 || next > d.config.MaxBackoff {
		return d.config.MaxBackoff
	}
	return next
}

var _ core.MonitorDispatcher = (*Dispatcher)(nil)
