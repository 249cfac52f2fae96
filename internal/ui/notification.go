package ui

import (
	"os/exec"

	"github.com/nasfand/nasfand/internal/util"
)

const pushExecutable = "push"

// PushNotifier sends fire-and-forget messages using the system-wide
// "push" executable. No delivery guarantee is given; if the executable
// is not installed, messages are dropped silently.
type PushNotifier struct {
	executable string
}

func NewPushNotifier() *PushNotifier {
	path, err := exec.LookPath(pushExecutable)
	if err != nil {
		path = ""
	}
	if len(path) > 0 {
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			Warning("Refusing to use %s: %v", path, err)
			path = ""
		}
	}
	return &PushNotifier{executable: path}
}

func (n *PushNotifier) Send(message string) {
	if len(n.executable) <= 0 {
		return
	}

	cmd := exec.Command(n.executable, message)
	if err := cmd.Start(); err != nil {
		Debug("Unable to send push message: %v", err)
		return
	}
	// reap the child in the background, the result is irrelevant
	go func() {
		_ = cmd.Wait()
	}()
	Info("Sent push message: %s", message)
}
