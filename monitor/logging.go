package monitor

import (
	"context"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-station-inbox/core"
)

// LoggingSink writes monitor messages to the service logger.
type LoggingSink struct {
	logger core.Logger
}

func NewLoggingSink(logger core.Logger) *LoggingSink {
	if logger == nil {
		_, logger = glog.Resolve("inbox.monitor", nil, nil)
	}
	return &LoggingSink{logger: glog.Ensure(logger)}
}

func (s *LoggingSink) Deliver(ctx context.Context, msg core.MonitorMessage) error {
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := []any{"text", msg.Text}
	if path := strings.TrimSpace(msg.AttachmentPath); path != "" {
		args = append(args, "attachment", path)
	}
	logger.Info("monitor message", args...)
	return nil
}

var _ Sink = (*LoggingSink)(nil)
