// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/coreos/pkg/capnslog"
	"github.com/spf13/cobra"

	"github.com/flatcar/ue-go/cli"
)

var (
	plog = capnslog.NewPackageLogger("github.com/flatcar/ue-go", "main")

	root = &cobra.Command{
		Use:   "ue",
		Short: "Flatcar update payload engine",
		Long: `ue verifies and applies A/B update payloads. It can also check an
omaha server for new payloads, download them, and generate payloads
from partition images.`,
	}
)

func main() {
	cli.Execute(root)
}

func die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
