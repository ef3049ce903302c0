// Package orchestrator keeps a dashboard synchronized with the market
// service.
//
// An Orchestrator owns the push channel (connection.Manager), the pull
// loop (poller.Poller), the update router and the alert buffer. Both paths
// decode into router messages and share one bounded queue drained by a
// single dispatch goroutine, which preserves arrival order per tag.
//
// The active symbol carries an epoch. Changing the symbol bumps the epoch;
// pull results started under an older epoch are discarded at dispatch, and
// push updates naming another symbol are dropped.
package orchestrator
