//go:build !unix

package tools

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable; exec's
// default Cancel kills the direct child and WaitDelay bounds the rest.
func killProcessGroup(cmd *exec.Cmd) {}
