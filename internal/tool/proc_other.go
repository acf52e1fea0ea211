// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !unix

package tool

import "os/exec"

// killGroupOnCancel relies on the default kill of the direct child; WaitDelay
// still bounds the wait on inherited pipes.
func killGroupOnCancel(cmd *exec.Cmd) {}
