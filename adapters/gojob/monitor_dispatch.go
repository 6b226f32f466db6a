package gojob

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-station-inbox/core"
)

const defaultDispatchRetryDelay = 30 * time.Second

// NewMonitorDispatchMessage builds the job that drains the monitor outbox.
// Messages scheduled inside the same minute share an idempotency key.
func NewMonitorDispatchMessage(batchSize int, scheduledAt time.Time) *core.JobExecutionMessage {
	params := map[string]any{}
	if batchSize > 0 {
		params[ParamBatchSize] = batchSize
	}
	return &core.JobExecutionMessage{
		JobID:          JobIDMonitorDispatch,
		ScriptPath:     JobIDMonitorDispatch,
		Parameters:     params,
		IdempotencyKey: fmt.Sprintf("%s:%d", JobIDMonitorDispatch, scheduledAt.UTC().Truncate(time.Minute).Unix()),
	}
}

// ScheduleMonitorDispatch enqueues one dispatch run.
func ScheduleMonitorDispatch(ctx context.Context, enqueuer core.JobEnqueuer, batchSize int, at time.Time) error {
	if enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	return enqueuer.Enqueue(ctx, NewMonitorDispatchMessage(batchSize, at))
}

type MonitorDispatchWorker struct {
	dequeuer   core.JobDequeuer
	dispatcher core.MonitorDispatcher
	hook       core.JobWorkerHook
	retryDelay time.Duration
	now        func() time.Time
}

type MonitorDispatchWorkerOption func(*MonitorDispatchWorker)

func WithWorkerHook(hook core.JobWorkerHook) MonitorDispatchWorkerOption {
	return func(w *MonitorDispatchWorker) {
		w.hook = hook
	}
}

func WithRetryDelay(delay time.Duration) MonitorDispatchWorkerOption {
	return func(w *MonitorDispatchWorker) {
		if delay > 0 {
			w.retryDelay = delay
		}
	}
}

func NewMonitorDispatchWorker(
	dequeuer core.JobDequeuer,
	dispatcher core.MonitorDispatcher,
	opts ...MonitorDispatchWorkerOption,
) (*MonitorDispatchWorker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("gojob: monitor dispatcher is required")
	}
	w := &MonitorDispatchWorker{
		dequeuer:   dequeuer,
		dispatcher: dispatcher,
		retryDelay: defaultDispatchRetryDelay,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// ProcessNext handles one delivery. Per-message failures are rescheduled by
// the outbox itself, so the job is only requeued when nothing could be
// claimed at all.
func (w *MonitorDispatchWorker) ProcessNext(ctx context.Context) (core.DispatchStats, error) {
	if w == nil || w.dequeuer == nil || w.dispatcher == nil {
		return core.DispatchStats{}, fmt.Errorf("gojob: monitor dispatch worker is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return core.DispatchStats{}, err
	}
	if delivery == nil {
		return core.DispatchStats{}, nil
	}
	msg := delivery.Message()
	if msg == nil || strings.TrimSpace(msg.JobID) != JobIDMonitorDispatch {
		jobID := ""
		if msg != nil {
			jobID = msg.JobID
		}
		nackErr := delivery.Nack(ctx, core.JobNackOptions{
			DeadLetter: true,
			Reason:     "unsupported job " + jobID,
		})
		return core.DispatchStats{}, joinErrors(fmt.Errorf("gojob: unsupported job %q", jobID), nackErr)
	}

	event := core.JobWorkerEvent{Message: msg, Attempt: 1, StartedAt: w.now()}
	w.onStart(ctx, event)
	stats, dispatchErr := w.dispatcher.DispatchPending(ctx, batchSizeParam(msg.Parameters))
	event.Duration = w.now().Sub(event.StartedAt)
	event.Err = dispatchErr

	if dispatchErr != nil && stats.Claimed == 0 {
		event.Delay = w.retryDelay
		w.onRetry(ctx, event)
		nackErr := delivery.Nack(ctx, core.JobNackOptions{
			Delay:   w.retryDelay,
			Requeue: true,
			Reason:  dispatchErr.Error(),
		})
		return stats, joinErrors(dispatchErr, nackErr)
	}
	if err := delivery.Ack(ctx); err != nil {
		event.Err = err
		w.onFailure(ctx, event)
		return stats, err
	}
	if dispatchErr != nil {
		w.onFailure(ctx, event)
		return stats, dispatchErr
	}
	w.onSuccess(ctx, event)
	return stats, nil
}

func (w *MonitorDispatchWorker) onStart(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnStart(ctx, event)
	}
}

func (w *MonitorDispatchWorker) onSuccess(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnSuccess(ctx, event)
	}
}

func (w *MonitorDispatchWorker) onFailure(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnFailure(ctx, event)
	}
}

func (w *MonitorDispatchWorker) onRetry(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnRetry(ctx, event)
	}
}

func batchSizeParam(params map[string]any) int {
	switch typed := params[ParamBatchSize].(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err == nil {
			return parsed
		}
	}
	return 0
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
