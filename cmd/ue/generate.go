// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/flatcar/ue-go/update"
	"github.com/flatcar/ue-go/update/generator"
)

var (
	cmdGenerate = &cobra.Command{
		Use:   "generate [output]",
		Short: "Generate a full-update payload from partition images",
		Run:   runGenerate,
	}

	generatePartition string
	generateKernel    string
	generateSignKey   string
)

func init() {
	fs := cmdGenerate.Flags()
	fs.StringVar(&generatePartition, "partition", "", "partition image to package")
	fs.StringVar(&generateKernel, "kernel", "", "kernel image to package")
	fs.StringVar(&generateSignKey, "sign-key", "", "RSA private key file to sign the payload with")
	root.AddCommand(cmdGenerate)
}

func runGenerate(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		die("expected exactly one output file")
	}
	if generatePartition == "" && generateKernel == "" {
		die("at least one of --partition and --kernel is required")
	}

	gen := &generator.Generator{}
	defer gen.Destroy()

	if generateSignKey != "" {
		key, err := update.LoadPrivateKey(generateSignKey)
		if err != nil {
			die("loading signing key: %v", err)
		}
		gen.SignKey = key
	}

	if generatePartition != "" {
		proc, err := generator.FullUpdateProcedure(generatePartition)
		if err != nil {
			die("%v", err)
		}
		if err := gen.Partition(proc); err != nil {
			die("%v", err)
		}
	}
	if generateKernel != "" {
		proc, err := generator.FullUpdateProcedure(generateKernel)
		if err != nil {
			die("%v", err)
		}
		if err := gen.Kernel(proc); err != nil {
			die("%v", err)
		}
	}

	if err := gen.Write(args[0]); err != nil {
		die("%v", err)
	}
	plog.Noticef("wrote payload %s", args[0])
}
