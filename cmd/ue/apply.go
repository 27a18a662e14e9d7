// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"os"

	"github.com/spf13/cobra"

	"github.com/flatcar/ue-go/update"
)

var (
	cmdApply = &cobra.Command{
		Use:   "apply [payload]",
		Short: "Verify an update payload and apply it to a partition",
		Run:   runApply,
	}

	cmdVerify = &cobra.Command{
		Use:   "verify [payload]",
		Short: "Verify an update payload without applying it",
		Run:   runVerify,
	}

	applyDst       string
	applySrc       string
	applyKernelDst string
	applyKernelSrc string
	applyCapacity  int64

	trustedKeyFiles []string
	expectedSHA256  string
	expectedSize    int64
)

func init() {
	fs := cmdApply.Flags()
	fs.StringVar(&applyDst, "dst", "", "destination partition device or file")
	fs.StringVar(&applySrc, "src", "", "source partition for delta payloads")
	fs.StringVar(&applyKernelDst, "kernel-dst", "", "destination kernel device or file")
	fs.StringVar(&applyKernelSrc, "kernel-src", "", "source kernel for delta payloads")
	fs.Int64Var(&applyCapacity, "dst-capacity", 0, "destination capacity in bytes, 0 to autodetect")

	for _, cmd := range []*cobra.Command{cmdApply, cmdVerify} {
		fs := cmd.Flags()
		fs.StringSliceVar(&trustedKeyFiles, "pub-key", nil, "trusted public key file, repeatable")
		fs.StringVar(&expectedSHA256, "expected-sha256", "", "hex sha256 the whole payload file must hash to")
		fs.Int64Var(&expectedSize, "expected-size", 0, "exact size the payload file must have")
		root.AddCommand(cmd)
	}
}

func payloadConfig() update.Config {
	var conf update.Config
	for _, path := range trustedKeyFiles {
		key, err := update.LoadPublicKey(path)
		if err != nil {
			die("loading public key: %v", err)
		}
		conf.TrustedKeys = append(conf.TrustedKeys, key)
	}
	if expectedSHA256 != "" {
		sum, err := hex.DecodeString(expectedSHA256)
		if err != nil {
			die("bad --expected-sha256: %v", err)
		}
		conf.ExpectedSHA256 = sum
	}
	conf.ExpectedSize = expectedSize
	return conf
}

func runApply(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		die("expected exactly one payload file")
	}
	if applyDst == "" {
		die("--dst is required")
	}

	f, err := os.Open(args[0])
	if err != nil {
		die("%v", err)
	}
	defer f.Close()

	updater := update.Updater{
		DstPartition: applyDst,
		SrcPartition: applySrc,
		DstKernel:    applyKernelDst,
		SrcKernel:    applyKernelSrc,
		DstCapacity:  applyCapacity,
		Config:       payloadConfig(),
	}
	if err := updater.UsePayload(f); err != nil {
		die("%v", err)
	}
	if err := updater.Update(); err != nil {
		die("%v", err)
	}
	plog.Noticef("payload applied to %s", applyDst)
}

func runVerify(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		die("expected exactly one payload file")
	}
	f, err := os.Open(args[0])
	if err != nil {
		die("%v", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		die("%v", err)
	}
	payload, err := update.NewPayload(f, fi.Size(), payloadConfig())
	if err != nil {
		die("%v", err)
	}
	if err := payload.Verify(); err != nil {
		die("%v", err)
	}
	m := payload.Manifest
	cmd.Printf("payload OK: version %d, block size %d, %d partition + %d kernel operations\n",
		payload.Header.Version, m.GetBlockSize(),
		len(m.GetInstallOperations()), len(m.GetKernelInstallOperations()))
}
