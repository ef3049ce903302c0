// Package connection implements the push channel.
//
// The Manager:
//   - Owns one persistent channel to the market-data service
//   - Sends a heartbeat frame on a fixed interval while connected
//   - Reconnects after every close or failed dial using a backoff.Policy
//   - Forwards every inbound frame to a handler
//   - Ignores events from superseded connections
package connection
