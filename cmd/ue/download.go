// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/hex"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/flatcar/ue-go/download"
)

var (
	cmdDownload = &cobra.Command{
		Use:   "download [url] [path]",
		Short: "Download an update payload, verifying its size and digest",
		Run:   runDownload,
	}

	downloadSHA256  string
	downloadSize    int64
	downloadGPG     bool
	downloadGPGKey  string
	downloadKeepSig bool
)

func init() {
	fs := cmdDownload.Flags()
	fs.StringVar(&downloadSHA256, "expected-sha256", "", "hex sha256 the download must hash to")
	fs.Int64Var(&downloadSize, "expected-size", 0, "exact size the download must have")
	fs.BoolVar(&downloadGPG, "gpg-verify", false, "also fetch and check a detached GPG signature")
	fs.StringVar(&downloadGPGKey, "verify-key", "", "PGP public key file, or blank for the built-in key")
	fs.BoolVar(&downloadKeepSig, "keep-sig", false, "keep the detached signature file on disk when successful")
	root.AddCommand(cmdDownload)
}

func runDownload(cmd *cobra.Command, args []string) {
	var source, output string
	switch len(args) {
	case 2:
		source, output = args[0], args[1]
	case 1:
		source, output = args[0], "."
	default:
		die("expected one or two arguments")
	}

	// If the output path exists and is a directory, keep the file name.
	if stat, err := os.Stat(output); err == nil && stat.IsDir() {
		output = path.Join(output, path.Base(source))
	}

	client := download.Client{ExpectedSize: downloadSize}
	if downloadSHA256 != "" {
		sum, err := hex.DecodeString(downloadSHA256)
		if err != nil {
			die("bad --expected-sha256: %v", err)
		}
		client.ExpectedSHA256 = sum
	}

	var err error
	if downloadGPG {
		err = client.FetchSigned(context.Background(), source, output, downloadGPGKey)
		if err == nil && !downloadKeepSig {
			err = os.Remove(output + ".sig")
		}
	} else {
		err = client.Fetch(context.Background(), source, output)
	}
	if err != nil {
		die("%v", err)
	}
	plog.Noticef("downloaded %s", output)
}
