package core

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// operationOutcome separates caller mistakes from real failures so only the
// latter are logged at error level.
type operationOutcome string

const (
	outcomeOK       operationOutcome = "ok"
	outcomeRejected operationOutcome = "rejected"
	outcomeFailed   operationOutcome = "failed"
)

// Fields copied from the log context onto metric tags when present.
var metricTagFields = []string{"country_code", "command", "state"}

func classifyOutcome(err error) operationOutcome {
	switch {
	case err == nil:
		return outcomeOK
	case IsValidationError(err),
		errors.Is(err, ErrInboxEntryNotFound),
		errors.Is(err, ErrInboxEntryNotOwner),
		errors.Is(err, ErrPhotoTooLarge):
		return outcomeRejected
	default:
		return outcomeFailed
	}
}

func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	operation = normalizeOperation(operation)
	outcome := classifyOutcome(err)
	elapsed := time.Since(startedAt)

	logFields := cloneFields(fields)
	logFields["event_type"] = operation
	logFields["outcome"] = string(outcome)
	logFields["duration_ms"] = elapsed.Milliseconds()
	if err != nil {
		logFields["error"] = err.Error()
	}

	status := "success"
	if outcome != outcomeOK {
		status = "failure"
	}
	tags := map[string]string{"operation": operation, "status": status, "outcome": string(outcome)}
	for _, key := range metricTagFields {
		value, ok := logFields[key]
		if !ok || value == nil {
			continue
		}
		if text := strings.TrimSpace(fmt.Sprint(value)); text != "" {
			tags[key] = text
		}
	}
	s.recordCounter(ctx, "inbox."+operation+".total", 1, tags)
	s.recordHistogram(ctx, "inbox."+operation+".duration_ms", float64(elapsed.Milliseconds()), tags)

	switch outcome {
	case outcomeOK:
		s.logInfo(ctx, operation+" succeeded", logFields)
	case outcomeRejected:
		s.logWarn(ctx, operation+" rejected", logFields)
	default:
		s.logError(ctx, operation+" failed", logFields)
	}
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	if logger := s.scopedLogger(ctx, fields); logger != nil {
		logger.Info(message, flattenFields(fields)...)
	}
}

func (s *Service) logWarn(ctx context.Context, message string, fields map[string]any) {
	if logger := s.scopedLogger(ctx, fields); logger != nil {
		logger.Warn(message, flattenFields(fields)...)
	}
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	if logger := s.scopedLogger(ctx, fields); logger != nil {
		logger.Error(message, flattenFields(fields)...)
	}
}

// scopedLogger binds the request context and, for glog field loggers, the
// structured fields.
func (s *Service) scopedLogger(ctx context.Context, fields map[string]any) Logger {
	if s == nil || s.logger == nil {
		return nil
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	return logger
}

func (s *Service) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.IncCounter(ctx, name, value, cloneTags(tags))
}

func (s *Service) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.ObserveHistogram(ctx, name, value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	return maps.Clone(fields)
}

// flattenFields turns fields into sorted key/value pairs for loggers without
// field support.
func flattenFields(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.ToLower(strings.TrimSpace(operation))
	operation = strings.NewReplacer(" ", "_", "-", "_").Replace(operation)
	if operation == "" {
		return "unknown"
	}
	return operation
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if tags == nil {
		return map[string]string{}
	}
	return maps.Clone(tags)
}
