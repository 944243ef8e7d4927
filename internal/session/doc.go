// Package session drives a tarot reading from topic choice to revealed
// interpretation.
//
// A Machine owns one domain.ReadingSession and moves it through
//
//	topic_selection -> [question_capture] -> shuffling -> dealing ->
//	selecting -> interpreting -> result
//
// Timed steps (shuffle, deal ticks, reveal ticks) and backend calls run as
// tasks on a task.Scheduler keyed by the session ID. Every task carries the
// generation it was scheduled in; Restart bumps the generation and cancels
// the key, so no callback from before a restart can touch the new session.
// Backend calls run outside the machine's lock and their results are applied
// only if the generation is unchanged, which keeps remote failures from
// partially mutating the session.
//
// A Manager holds one Machine per owner and evicts idle ones.
package session
