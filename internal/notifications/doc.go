// Package notifications delivers pipeline run events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to nil-check the notifier. Each event can be toggled in
// the [notifications] section of the config file.
package notifications
