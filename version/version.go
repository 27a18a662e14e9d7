// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

// Package version holds the build version reported by every command.
package version

// Version may be overridden at link time:
//
//	-ldflags "-X github.com/flatcar/ue-go/version.Version=1.2.3"
var Version = "0.0.1+git"
