// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Push channel state, reconnects and heartbeats
//   - Routed messages by source and tag
//   - Decode errors and discarded updates
//   - Pull latency and failures by category
//   - Alerts by severity
package metrics
