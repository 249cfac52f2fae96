package util

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CmdOutput executes the given command with a hard timeout and returns
// its trimmed stdout. A hung external tool can therefore never stall
// the caller for longer than the given duration. The executable is
// resolved via PATH and refused unless it is root-owned and not
// writable by anyone else, since the daemon runs as root.
func CmdOutput(executable string, args []string, timeout time.Duration) (string, error) {
	path, err := exec.LookPath(executable)
	if err != nil {
		return "", err
	}
	if _, err := CheckFilePermissionsForExecution(path); err != nil {
		return "", fmt.Errorf("cannot execute %s: %s", executable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	out, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out: %s", executable)
	}

	if err != nil {
		return "", err
	}

	strout := string(out)
	strout = strings.Trim(strout, "\n")

	return strout, nil
}
