//go:build !unix

package executor

import (
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func terminationSignal(state *os.ProcessState) (int, bool) {
	return 0, false
}

func isSegfault(sig int) bool {
	return false
}
