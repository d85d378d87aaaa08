// Package session manages the GATT link to one unprovisioned device.
//
// A Manager owns at most one Session. Connecting tears down the previous
// session first. Once the transport reports the link as connected, the
// Manager discovers services with a bounded retry policy: each attempt is
// followed by a timeout, failed or incomplete results trigger another
// attempt, and when the budget is spent the session is torn down with
// ErrServiceDiscoveryFailed.
//
// Writes issued before discovery has resolved the provisioning
// characteristic are deferred. A deferred write is issued exactly once,
// either as soon as discovery completes or when its retry timer finds
// discovery complete. It is abandoned if the session ends first.
//
// All Manager methods and all transport events run on a dispatch.Scheduler.
// Every transport event and timer carries the generation of the session it
// belongs to and is dropped if that session is no longer live.
package session
