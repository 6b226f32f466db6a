package gojob

import (
	"context"

	"github.com/goliatone/go-station-inbox/adapters/gologger"
	"github.com/goliatone/go-station-inbox/core"
)

// LoggingHook reports dispatch runs on the "inbox.jobs" logger.
type LoggingHook struct {
	logger core.Logger
}

func NewLoggingHook(provider core.LoggerProvider, logger core.Logger) *LoggingHook {
	return &LoggingHook{logger: gologger.Component(provider, logger, "jobs")}
}

// WithWorkerLogger installs a LoggingHook unless a hook was already set.
func WithWorkerLogger(provider core.LoggerProvider, logger core.Logger) MonitorDispatchWorkerOption {
	return func(w *MonitorDispatchWorker) {
		if w.hook == nil {
			w.hook = NewLoggingHook(provider, logger)
		}
	}
}

func (h *LoggingHook) OnStart(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx).Debug("monitor dispatch started", eventArgs(event)...)
}

func (h *LoggingHook) OnSuccess(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx).Info("monitor dispatch finished", eventArgs(event)...)
}

func (h *LoggingHook) OnFailure(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx).Error("monitor dispatch failed", eventArgs(event)...)
}

func (h *LoggingHook) OnRetry(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx).Warn("monitor dispatch requeued", eventArgs(event)...)
}

func (h *LoggingHook) log(ctx context.Context) core.Logger {
	if ctx != nil {
		return h.logger.WithContext(ctx)
	}
	return h.logger
}

func eventArgs(event core.JobWorkerEvent) []any {
	args := []any{"attempt", event.Attempt, "duration_ms", event.Duration.Milliseconds()}
	if event.Message != nil {
		args = append(args, "job_id", event.Message.JobID, "idempotency_key", event.Message.IdempotencyKey)
	}
	if event.Delay > 0 {
		args = append(args, "delay_ms", event.Delay.Milliseconds())
	}
	if event.Err != nil {
		args = append(args, "error", event.Err.Error())
	}
	return args
}

var _ core.JobWorkerHook = (*LoggingHook)(nil)
