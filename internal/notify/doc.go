// Package notify carries the dismissal-confirmed broadcast over Redis pub/sub.
//
// The engine publishes the alarm id once a session is dismissed; any
// full-screen surface listening for that id closes itself.
package notify
