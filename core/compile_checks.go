package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ InboxService        = (*Service)(nil)
	_ AdminCommandVisitor = adminCommandRunner{}
	_ Monitor             = NopMonitor{}
	_ MetricsRecorder     = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
