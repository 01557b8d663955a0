// Package control implements the operator CLI behind the alarm-control
// binary: alarm management, session commands, engine status and the
// dismissal-broadcast watcher. Output goes to stdout for humans; logging
// stays on the diagnostic channel.
package control
