// Package firecache keeps a short-lived Redis record of recently fired alarm
// definitions.
//
// When a trigger fires, the dispatcher snapshots the resolved definition here
// before starting the session. If the standing and one-shot stores both miss
// during session startup (a one-shot may already be consumed by a racing
// resolution), the session recalls the snapshot so a trigger is never
// silently lost.
package firecache
