// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package generator

import (
	"bytes"
	"crypto/sha256"
	"io"
	"os"

	"github.com/golang/protobuf/proto"

	"github.com/flatcar/ue-go/update/metadata"
)

// chunkBlocks is the number of blocks each REPLACE operation covers in
// a full-update procedure.
const chunkBlocks = 128

// paddedStream serves a file followed by its zero padding, closing the
// file when the procedure is destroyed.
type paddedStream struct {
	io.Reader
	f *os.File
}

func (s *paddedStream) Close() error { return s.f.Close() }

// FullUpdateProcedure builds a procedure that replaces the whole target
// with the contents of path. The image is padded with zeros up to a
// block boundary; NewInfo still describes the unpadded image.
func FullUpdateProcedure(path string) (*Procedure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := NewInstallInfo(f)
	if err != nil {
		return nil, err
	}
	size := int64(info.GetSize())
	blocks := (size + BlockSize - 1) / BlockSize
	pad := blocks*BlockSize - size

	var ops []*metadata.InstallOperation
	src := io.MultiReader(f, bytes.NewReader(make([]byte, pad)))
	buf := make([]byte, chunkBlocks*BlockSize)
	for block := int64(0); block < blocks; block += chunkBlocks {
		n := blocks - block
		if n > chunkBlocks {
			n = chunkBlocks
		}
		chunk := buf[:n*BlockSize]
		if _, err := io.ReadFull(src, chunk); err != nil {
			return nil, err
		}
		sum := sha256.Sum256(chunk)
		ops = append(ops, &metadata.InstallOperation{
			Type:       metadata.InstallOperation_REPLACE.Enum(),
			DataLength: proto.Uint32(uint32(len(chunk))),
			DstExtents: []*metadata.Extent{{
				StartBlock: proto.Uint64(uint64(block)),
				NumBlocks:  proto.Uint64(uint64(n)),
			}},
			DataSha256Hash: append([]byte(nil), sum[:]...),
		})
	}

	stream, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Procedure{
		InstallProcedure: metadata.InstallProcedure{
			NewInfo:    info,
			Operations: ops,
		},
		ReadCloser: &paddedStream{
			Reader: io.MultiReader(stream, bytes.NewReader(make([]byte, pad))),
			f:      stream,
		},
	}, nil
}
