// Package alarm contains core domain types for the wake engine.
//
// It defines Definition (a configured alarm with its dismissal challenge),
// ChallengeSpec (a tagged union over the challenge variants), WakeEvent
// (an immutable history record written once per successful dismissal) and
// the trigger calculator NextTrigger, which turns a definition plus a
// reference instant into the next absolute firing instant.
package alarm
