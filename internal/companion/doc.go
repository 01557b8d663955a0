// Package companion gives the engine a messenger to the wrist companion.
//
// The Messenger interface covers the three wire operations the handshake
// needs: a bounded connectivity probe, a worn-state probe and the start
// notification. The gRPC-backed Client treats transport errors and timeouts
// as negative or unknown results at the call site, matching the handshake
// rule that a failing probe must never block a session.
package companion
