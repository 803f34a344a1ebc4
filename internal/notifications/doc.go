// Package notifications delivers ntfy push messages when recordings are
// downloaded or uploaded and when a pass fails.
//
// NewService returns a noop implementation when no topic is configured, so
// callers never branch on whether notifications are enabled.
package notifications
