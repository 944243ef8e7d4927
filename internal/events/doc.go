// Package events carries reading session lifecycle events to interested
// components.
//
// The session state machine emits an Event for every observable change
// (state transitions, dealt and selected cards, reveal ticks, errors).
// Handlers such as the metrics collector subscribe through an EventEmitter
// without the session package knowing about them.
//
// The primary components are:
// - Event: a single lifecycle notification
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
