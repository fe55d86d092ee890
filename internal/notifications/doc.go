// Package notifications pushes batch lifecycle updates to an ntfy topic.
// With no topic configured every notification is a no-op.
package notifications
