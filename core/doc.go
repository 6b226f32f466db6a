// Package core contains the inbox moderation domain: entities, ports, the
// conflict detector, the workflow engine and its read-side projections.
// Adapters (SQL stores, photo storage, monitor sinks) depend on this package;
// core must not depend on any adapter.
package core
