//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr keeps console control events of the CLI away from the
// auto-started server
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
