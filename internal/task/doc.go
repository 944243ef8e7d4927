// Package task schedules cancellable delayed work.
//
// Every timed step of a reading session (shuffle delay, deal ticks, reveal
// ticks, deferred interpretation) is a task scheduled under the session's
// key. Cancelling the key stops all of them at once, so a restarted session
// never sees callbacks from its previous life. The clock is pluggable; tests
// drive time explicitly with ManualClock.
package task
