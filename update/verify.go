// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package update

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/flatcar/ue-go/lang/reader"
)

// Verify runs the full verification pass over the payload: one sequential
// read of the file feeding two digests, the signature digest over
// header + manifest + blob and the whole-file digest the update check
// pinned. Size and pinned-hash mismatches reject the payload before any
// signature work; a signature verifying under no trusted key rejects it
// after. Until Verify succeeds the Updater refuses to apply.
func (p *Payload) Verify() error {
	signed := sha256.New()
	whole := sha256.New()

	src := reader.AtReader(io.NewSectionReader(p.r, 0, p.size))
	if _, err := io.CopyN(io.MultiWriter(signed, whole), src, p.sigOffset); err != nil {
		return err
	}
	trailing, err := io.Copy(whole, src)
	if err != nil {
		return err
	}
	if trailing != p.size-p.sigOffset {
		return formatErrf("payload shrank while verifying")
	}

	if p.conf.ExpectedSize != 0 && p.size != p.conf.ExpectedSize {
		return securityErrf("payload is %d bytes, update check promised %d",
			p.size, p.conf.ExpectedSize)
	}
	if p.conf.ExpectedSHA256 != nil {
		sum := whole.Sum(nil)
		if !hmac.Equal(sum, p.conf.ExpectedSHA256) {
			return securityErrf("payload hash %s does not match pinned hash %s",
				hex.EncodeToString(sum), hex.EncodeToString(p.conf.ExpectedSHA256))
		}
	}

	if len(p.conf.TrustedKeys) == 0 {
		return securityErrf("no trusted keys configured")
	}
	sigs, err := p.Signatures()
	if err != nil {
		return err
	}
	if len(sigs.GetSignatures()) == 0 {
		return securityErrf("payload carries no signatures")
	}
	if !verifySignatures(sigs, p.conf.TrustedKeys, signed.Sum(nil)) {
		return securityErrf("no signature verifies under any trusted key")
	}

	p.verified = true
	plog.Infof("payload verified: %d bytes, %d operations",
		p.size, len(p.InstallOperations()))
	return nil
}
