// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package generator

import (
	"bytes"
	"crypto/sha256"
)

var (
	testOnes          = bytes.Repeat([]byte{1}, BlockSize)
	testOnesHash      = sha256sum(testOnes)
	testUnaligned     = bytes.Repeat([]byte{2}, BlockSize+1)
	testUnalignedHash = sha256sum(testUnaligned)
	testEmptyHash     = sha256sum(nil)
)

func sha256sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
