// Package metrics defines the sinks merge runs report to. Sinks like
// PromSink and InfluxSink record run outcomes and can be combined with
// NewMultiSink. The factory helpers return a MultiSink automatically when
// multiple sinks are configured.
package metrics
