// Package monitor delivers operational notifications produced by the inbox
// workflow. Messages are persisted to an outbox and drained by a Dispatcher
// into one or more sinks (shoutrrr URLs, the service logger).
package monitor
