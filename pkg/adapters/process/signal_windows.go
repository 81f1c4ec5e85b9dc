//go:build windows

package process

import "os/exec"

func interrupt(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
