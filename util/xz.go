// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"io"

	"github.com/ulikunitz/xz"
)

// UnXZ does xz decompression from src to dst.
//
// It matches the signature of io.Copy.
func UnXZ(dst io.Writer, src io.Reader) (int64, error) {
	reader, err := xz.NewReader(src)
	if err != nil {
		return 0, err
	}
	return io.Copy(dst, reader)
}
