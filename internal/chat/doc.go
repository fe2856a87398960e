// Package chat implements the room and session state manager for the chat
// relay together with its event fan-out rules.
//
// A Hub owns a Registry of rooms and the set of connected sessions. Each
// inbound client action is a method on Session; the session mutates its own
// binding and the affected Room under their locks, then delivers outbound
// events through the Sink attached to every target session. Sinks must never
// block: delivery happens while room locks are held so that all members of a
// room observe events in the same order.
//
// Lock order is session, directory, registry, then rooms sorted by name.
package chat
