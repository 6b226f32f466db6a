package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	job "github.com/goliatone/go-job"

	"github.com/goliatone/go-station-inbox/core"
)

type stubDispatcher struct {
	batchSize int
	stats     core.DispatchStats
	err       error
}

func (d *stubDispatcher) DispatchPending(_ context.Context, batchSize int) (core.DispatchStats, error) {
	d.batchSize = batchSize
	return d.stats, d.err
}

type recordingHook struct {
	started, succeeded, failed, retried int
}

func (h *recordingHook) OnStart(context.Context, core.JobWorkerEvent)   { h.started++ }
func (h *recordingHook) OnSuccess(context.Context, core.JobWorkerEvent) { h.succeeded++ }
func (h *recordingHook) OnFailure(context.Context, core.JobWorkerEvent) { h.failed++ }
func (h *recordingHook) OnRetry(context.Context, core.JobWorkerEvent)   { h.retried++ }

func newDispatchDelivery(msg *core.JobExecutionMessage) *stubQueueDelivery {
	return &stubQueueDelivery{msg: ToExecutionMessage(msg)}
}

func TestMonitorDispatchWorker_AcksSuccessfulRun(t *testing.T) {
	delivery := newDispatchDelivery(NewMonitorDispatchMessage(20, time.Now()))
	dispatcher := &stubDispatcher{stats: core.DispatchStats{Claimed: 2, Delivered: 2}}
	hook := &recordingHook{}
	worker, err := NewMonitorDispatchWorker(
		NewDequeuerAdapter(&stubQueueDequeuer{delivery: delivery}, RetryPolicy{}),
		dispatcher,
		WithWorkerHook(hook),
	)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	stats, err := worker.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process next: %v", err)
	}
	if stats.Delivered != 2 || dispatcher.batchSize != 20 {
		t.Fatalf("unexpected stats %+v batch %d", stats, dispatcher.batchSize)
	}
	if !delivery.acked {
		t.Fatalf("expected delivery to be acked")
	}
	if hook.started != 1 || hook.succeeded != 1 || hook.failed != 0 {
		t.Fatalf("unexpected hook calls %+v", hook)
	}
}

func TestMonitorDispatchWorker_RequeuesWhenClaimFails(t *testing.T) {
	delivery := newDispatchDelivery(NewMonitorDispatchMessage(0, time.Now()))
	hook := &recordingHook{}
	worker, err := NewMonitorDispatchWorker(
		NewDequeuerAdapter(&stubQueueDequeuer{delivery: delivery}, RetryPolicy{MaxDelay: 10 * time.Second}),
		&stubDispatcher{err: errors.New("db down")},
		WithWorkerHook(hook),
		WithRetryDelay(time.Minute),
	)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if _, err := worker.ProcessNext(context.Background()); err == nil {
		t.Fatalf("expected dispatch error")
	}
	if delivery.acked {
		t.Fatalf("expected no ack when nothing was claimed")
	}
	if !delivery.nackOpts.Requeue || delivery.nackOpts.Delay != 10*time.Second {
		t.Fatalf("expected bounded requeue, got %+v", delivery.nackOpts)
	}
	if hook.retried != 1 {
		t.Fatalf("expected retry hook, got %+v", hook)
	}
}

func TestMonitorDispatchWorker_AcksPartialFailure(t *testing.T) {
	delivery := newDispatchDelivery(NewMonitorDispatchMessage(5, time.Now()))
	hook := &recordingHook{}
	worker, err := NewMonitorDispatchWorker(
		NewDequeuerAdapter(&stubQueueDequeuer{delivery: delivery}, RetryPolicy{}),
		&stubDispatcher{stats: core.DispatchStats{Claimed: 2, Delivered: 1, Retried: 1}, err: errors.New("sink offline")},
		WithWorkerHook(hook),
	)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	stats, err := worker.ProcessNext(context.Background())
	if err == nil || stats.Retried != 1 {
		t.Fatalf("expected partial failure, got %+v %v", stats, err)
	}
	if !delivery.acked {
		t.Fatalf("expected delivery to be acked after partial failure")
	}
	if hook.failed != 1 {
		t.Fatalf("expected failure hook, got %+v", hook)
	}
}

func TestMonitorDispatchWorker_DeadLettersUnknownJobs(t *testing.T) {
	delivery := &stubQueueDelivery{msg: &job.ExecutionMessage{JobID: "inbox.unknown"}}
	dispatcher := &stubDispatcher{}
	worker, err := NewMonitorDispatchWorker(NewDequeuerAdapter(&stubQueueDequeuer{delivery: delivery}, RetryPolicy{}), dispatcher)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if _, err := worker.ProcessNext(context.Background()); err == nil {
		t.Fatalf("expected unsupported job error")
	}
	if !delivery.nackOpts.DeadLetter || delivery.nackOpts.Requeue {
		t.Fatalf("expected dead letter, got %+v", delivery.nackOpts)
	}
}

func TestScheduleMonitorDispatch(t *testing.T) {
	enqueuer := &stubQueueEnqueuer{}
	if err := ScheduleMonitorDispatch(context.Background(), NewEnqueuerAdapter(enqueuer), 10, time.Now()); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDMonitorDispatch {
		t.Fatalf("expected dispatch job to be enqueued")
	}
	if batchSizeParam(enqueuer.last.Parameters) != 10 {
		t.Fatalf("expected batch size parameter to survive mapping")
	}
	if batchSizeParam(map[string]any{ParamBatchSize: "7"}) != 7 || batchSizeParam(nil) != 0 {
		t.Fatalf("unexpected batch size parsing")
	}
	if err := ScheduleMonitorDispatch(context.Background(), nil, 1, time.Now()); err == nil {
		t.Fatalf("expected nil enqueuer to be rejected")
	}
}
