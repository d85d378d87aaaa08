// Package dispatch provides a single-consumer event loop.
//
// All provisioning session state is owned by one goroutine running
// Loop.Run. Transport callbacks, timers and caller commands are posted to
// the loop as closures and executed strictly one at a time, so the code
// they run needs no locking.
//
// The Scheduler interface is the subset of Loop that session code depends
// on. Tests substitute a ManualScheduler to control time.
package dispatch
