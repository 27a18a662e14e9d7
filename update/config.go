// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package update

import "crypto/rsa"

// DefaultMaxManifestSize bounds how large a manifest a payload may claim
// before any manifest bytes are read. Real Flatcar manifests are a few
// kilobytes; the bound only exists to stop a hostile header from forcing
// a huge allocation.
const DefaultMaxManifestSize = 4 << 20

// Config carries the trust anchors and acceptance limits for payload
// processing. It is passed at construction and never mutated afterwards.
type Config struct {
	// TrustedKeys is the key ring payload signatures are verified
	// against. Any one (signature, key) pair verifying is sufficient,
	// which is what allows signing key rotation.
	TrustedKeys []*rsa.PublicKey

	// MaxManifestSize caps the manifest_size a header may declare.
	// Zero means DefaultMaxManifestSize.
	MaxManifestSize uint64

	// SupportedVersions lists the accepted payload major versions.
	// Empty means {1, 2}.
	SupportedVersions []uint64

	// ExpectedSize pins the total payload file size negotiated by the
	// update check. Zero disables the check.
	ExpectedSize int64

	// ExpectedSHA256 pins the SHA-256 of the entire payload file as
	// negotiated by the update check, trailing signatures included.
	// This is distinct from the signature digest, which stops at the
	// signature offset. Nil disables the check.
	ExpectedSHA256 []byte
}

func (c *Config) maxManifestSize() uint64 {
	if c.MaxManifestSize == 0 {
		return DefaultMaxManifestSize
	}
	return c.MaxManifestSize
}

func (c *Config) versionSupported(v uint64) bool {
	versions := c.SupportedVersions
	if len(versions) == 0 {
		versions = []uint64{1, 2}
	}
	for _, s := range versions {
		if v == s {
			return true
		}
	}
	return false
}
