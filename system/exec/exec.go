// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

// Package exec is an extension of the standard os/exec package.
// It adds a unified Kill and friendlier error classification for
// commands that may be missing from the host.
package exec

import (
	"context"
	"errors"
	"os/exec"
)

// ExecCmd wraps exec.Cmd, adding Kill.
type ExecCmd struct {
	*exec.Cmd
}

func Command(name string, arg ...string) *ExecCmd {
	return &ExecCmd{exec.Command(name, arg...)}
}

func CommandContext(ctx context.Context, name string, arg ...string) *ExecCmd {
	return &ExecCmd{exec.CommandContext(ctx, name, arg...)}
}

// Kill forcibly terminates the process and reaps it. The exit status of
// a killed process is not reported as an error.
func (cmd *ExecCmd) Kill() error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return err
	}
	var exitErr *exec.ExitError
	if err := cmd.Wait(); err != nil && !errors.As(err, &exitErr) {
		return err
	}
	return nil
}

// IsCmdNotFound reports whether err means the command's binary was not
// found on the host, as opposed to the command failing.
func IsCmdNotFound(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)
}
