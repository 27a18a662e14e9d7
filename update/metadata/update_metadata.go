// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

//go:generate protoc --go_out=import_path=$GOPACKAGE:. update_metadata.proto

package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is the first four bytes of any update payload.
const Magic = "CrAU"

// Major version of the payload format.
const Version = 1

// HeaderSize is the fixed length of the payload header on the wire.
const HeaderSize = 4 + 8 + 8

// SparseHole is the start_block sentinel marking an extent with no
// physical backing on the target device.
const SparseHole = ^uint64(0)

// DeltaArchiveHeader begins the payload file.
type DeltaArchiveHeader struct {
	Magic        [4]byte // "CrAU"
	Version      uint64  // 1
	ManifestSize uint64
}

// ReadDeltaArchiveHeader reads and validates the fixed header fields.
// Only the magic is judged here, the format version is left to the
// caller; nothing past the header is consumed.
func ReadDeltaArchiveHeader(r io.Reader) (*DeltaArchiveHeader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("reading payload header: %w", err)
	}

	var header DeltaArchiveHeader
	copy(header.Magic[:], buf[0:4])
	if string(header.Magic[:]) != Magic {
		return nil, errors.New("bad payload magic")
	}

	header.Version = binary.BigEndian.Uint64(buf[4:12])
	header.ManifestSize = binary.BigEndian.Uint64(buf[12:20])
	return &header, nil
}

// WriteTo writes the header in its wire encoding.
func (h *DeltaArchiveHeader) WriteTo(w io.Writer) (int64, error) {
	var buf [HeaderSize]byte
	copy(buf[0:4], h.Magic[:])
	binary.BigEndian.PutUint64(buf[4:12], h.Version)
	binary.BigEndian.PutUint64(buf[12:20], h.ManifestSize)
	n, err := w.Write(buf[:])
	return int64(n), err
}

// TranslateOffset maps a blob-relative offset, as used by InstallOperation
// data offsets and the manifest signature fields, to an offset from the
// start of the payload file. Blob offsets count from the end of the
// manifest, not from the start of the file.
func (h *DeltaArchiveHeader) TranslateOffset(offset uint64) uint64 {
	return HeaderSize + h.ManifestSize + offset
}
