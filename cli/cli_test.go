// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/coreos/pkg/capnslog"
	"github.com/spf13/cobra"
)

// startLogging must send log output to the writer configured on the
// command, falling back to stderr when none is set.
func TestStartLoggingUsesCommandOutput(t *testing.T) {
	defer func() {
		logVerbose = false
		logLevel = capnslog.NOTICE
		capnslog.SetGlobalLogLevel(capnslog.NOTICE)
	}()

	var buf bytes.Buffer
	cmd := &cobra.Command{Use: "testcmd"}
	cmd.SetOut(&buf)

	startLogging(cmd)
	plog.Noticef("logging check")

	if !strings.Contains(buf.String(), "logging check") {
		t.Errorf("log output not routed to command writer: %q", buf.String())
	}
}

func TestStartLoggingVerbose(t *testing.T) {
	defer func() {
		logVerbose = false
		logLevel = capnslog.NOTICE
		capnslog.SetGlobalLogLevel(capnslog.NOTICE)
	}()

	var buf bytes.Buffer
	cmd := &cobra.Command{Use: "testcmd"}
	cmd.SetOut(&buf)

	logVerbose = true
	startLogging(cmd)

	if logLevel != capnslog.INFO {
		t.Errorf("got level %s, want INFO", logLevel)
	}
	if !strings.Contains(buf.String(), "Started logging") {
		t.Errorf("INFO message suppressed at verbose level: %q", buf.String())
	}
}
