// Package challenge implements the dismissal challenges a user must complete
// to silence a ringing alarm.
//
// Every variant is a self-contained, resumable state machine behind a uniform
// contract: it is constructed from an alarm.ChallengeSpec, presents an
// interactive surface through variant-specific methods, reports completion
// exactly once through Callbacks.OnComplete and cancellation (possibly more
// than once, harmlessly) through Callbacks.OnCancel. The focus variant has an
// additional terminal failure outcome reported through Callbacks.OnFail that
// is deliberately distinct from both completion and cancellation.
package challenge
