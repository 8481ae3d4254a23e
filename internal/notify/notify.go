// Package notify raises desktop notifications for battery alerts. Each OS
// gets its own backend; platforms without one get a silent no-op so the
// watch loop never has to care.
package notify

// Notifier shows one desktop notification.
type Notifier interface {
	Notify(title, message string) error
}

// New returns the platform notifier. appName labels the notification source.
func New(appName string) Notifier {
	return newNotifier(appName)
}
