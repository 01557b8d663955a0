// Package orchestrator owns the live wake session and the firing entry point.
//
// The Orchestrator is a single-goroutine actor: every state transition of the
// at-most-one live Session funnels through its command loop, so no two
// transitions ever race. Fallback timers and the companion handshake run on
// their own goroutines and re-enter the loop carrying the session's generation
// token; a stale token makes them no-ops.
//
// The Dispatcher is invoked by the trigger scheduler when an alarm fires. It
// resolves the definition (standing store, then one-shot store, then the
// recent-fire cache), decides reschedule-versus-deactivate, and hands the
// resolved snapshot to the Orchestrator.
package orchestrator
