// Package notification provides cross-platform desktop notifications.
// It uses the beeep library to send notifications on macOS, Linux, and Windows.
package notification

import (
	"github.com/gen2brain/beeep"

	"github.com/wookiisky/think-bot/internal/logger"
)

// notifier is the function that delivers notifications. Swappable for tests.
var notifier = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// SetNotifier replaces the notification function. Used by tests.
func SetNotifier(fn func(title, message string) error) {
	notifier = fn
}

// ResetNotifier restores the default beeep-backed notifier.
func ResetNotifier() {
	notifier = func(title, message string) error {
		return beeep.Notify(title, message, "")
	}
}

// Send sends a desktop notification with the given title and message.
func Send(title, message string) error {
	logger.Debug("Notification: Sending - title=%q, message=%q", title, message)
	err := notifier(title, message)
	if err != nil {
		logger.Warn("Notification: Failed to send: %v", err)
	}
	return err
}

// BranchCompleted announces that a model finished answering while the app
// was not focused.
func BranchCompleted(modelName string) error {
	return Send("Think Bot", modelName+" finished responding")
}

// BranchFailed announces a failed response.
func BranchFailed(modelName string) error {
	return Send("Think Bot", modelName+" response failed")
}
