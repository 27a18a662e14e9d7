// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/spf13/cobra"

	"github.com/flatcar/ue-go/updatecheck"
)

var (
	cmdCheck = &cobra.Command{
		Use:   "check",
		Short: "Ask an omaha server whether an update is available",
		Run:   runCheck,
	}

	checkServer  string
	checkAppID   string
	checkVersion string
	checkTrack   string
	checkOEM     string
)

func init() {
	fs := cmdCheck.Flags()
	fs.StringVar(&checkServer, "server", updatecheck.DefaultServer, "omaha server endpoint")
	fs.StringVar(&checkAppID, "app-id", updatecheck.DefaultAppID, "omaha application id")
	fs.StringVar(&checkVersion, "version", "", "currently running version")
	fs.StringVar(&checkTrack, "track", updatecheck.DefaultTrack, "release group")
	fs.StringVar(&checkOEM, "oem", "", "OEM identifier to report")
	root.AddCommand(cmdCheck)
}

func runCheck(cmd *cobra.Command, args []string) {
	if len(args) != 0 {
		die("check takes no arguments")
	}
	if checkVersion == "" {
		die("--version is required")
	}

	client := updatecheck.Client{
		Server:  checkServer,
		AppID:   checkAppID,
		Version: checkVersion,
		Track:   checkTrack,
		OEM:     checkOEM,
	}
	pkg, err := client.Check(context.Background())
	if errors.Is(err, updatecheck.ErrNoUpdate) {
		cmd.Println("no update available")
		return
	}
	if err != nil {
		die("%v", err)
	}

	cmd.Printf("update available: %s\n", pkg.Version)
	cmd.Printf("  url:    %s\n", pkg.URL)
	if pkg.Size > 0 {
		cmd.Printf("  size:   %d\n", pkg.Size)
	}
	if pkg.SHA256 != nil {
		cmd.Printf("  sha256: %s\n", hex.EncodeToString(pkg.SHA256))
	}
}
