// Package store persists alarm definitions, one-shot alarms and wake history
// in SQLite.
//
// The engine treats the store as a collaborator: it resolves definitions when
// an alarm fires, consumes one-shot alarms atomically, flips the active flag
// and appends one wake event per successful dismissal. A change listener lets
// the engine re-synchronize scheduled triggers after CRUD performed through
// the control API.
package store
