// Package poller implements the pull path.
//
// The Poller:
//   - Pulls every category for the active symbol on a fixed interval
//   - Pulls immediately on start and whenever Trigger is called
//   - Runs categories concurrently, each with its own retry budget
//   - Tags each result with the target it was started for
package poller
