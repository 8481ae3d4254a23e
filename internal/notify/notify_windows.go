//go:build windows

package notify

import (
	"github.com/go-toast/toast"
)

type toastNotifier struct {
	appName string
}

func newNotifier(appName string) Notifier {
	return &toastNotifier{appName: appName}
}

func (n *toastNotifier) Notify(title, message string) error {
	t := toast.Notification{
		AppID:   n.appName,
		Title:   title,
		Message: message,
	}
	return t.Push()
}
