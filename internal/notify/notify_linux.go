//go:build linux

package notify

import (
	"os/exec"
)

// notify-send ships with libnotify and works across desktop environments;
// shelling out avoids a D-Bus dependency.
type sendNotifier struct {
	appName string
}

func newNotifier(appName string) Notifier {
	return &sendNotifier{appName: appName}
}

func (n *sendNotifier) Notify(title, message string) error {
	return exec.Command("notify-send", "--app-name", n.appName, title, message).Run()
}
