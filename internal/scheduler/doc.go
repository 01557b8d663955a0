// Package scheduler installs and reconciles wake triggers.
//
// Each active alarm gets exactly one cron entry whose schedule is the alarm's
// own next-trigger calculation, so the runner wakes precisely at the computed
// instant and re-arms itself for repeating alarms. Synchronize reconciles the
// full alarm set against the installed entries and is idempotent.
package scheduler
