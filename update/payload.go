// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

// Package update implements the trust boundary of the A/B update client:
// parsing CrAU payload containers, verifying their hashes and signatures,
// and applying the verified install operations to the inactive slot.
//
// Payload layout on the wire:
//
//	| header | manifest | data blobs | signatures |
//
// Blob-relative offsets (operation data, signature location) count from
// the end of the manifest region.
package update

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/coreos/pkg/capnslog"
	"github.com/golang/protobuf/proto"

	"github.com/flatcar/ue-go/update/metadata"
)

var plog = capnslog.NewPackageLogger("github.com/flatcar/ue-go", "update")

// Payload is a parsed update container. The header and manifest are
// immutable once parsed; blob data is read lazily so payload size is not
// bounded by memory. No operation data may be trusted until Verify has
// succeeded.
type Payload struct {
	Header   *metadata.DeltaArchiveHeader
	Manifest *metadata.DeltaArchiveManifest

	conf Config
	r    io.ReaderAt
	size int64

	// MetadataSignature holds the detached manifest signature carried by
	// major version 2 headers, empty for version 1.
	MetadataSignature []byte

	blobOffset int64
	blobSize   int64
	sigOffset  int64 // absolute start of the trailing signature region

	verified bool
}

// NewPayloadFrom parses the payload container in f using a zero Config.
// The result can be inspected but will not verify until trusted keys are
// configured; use NewPayload for that.
func NewPayloadFrom(f *os.File) (*Payload, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return NewPayload(f, fi.Size(), Config{})
}

// NewPayload frames the byte source into header, manifest, blob region
// and trailing signature region, decoding and structurally validating the
// manifest along the way.
func NewPayload(r io.ReaderAt, size int64, conf Config) (*Payload, error) {
	p := &Payload{conf: conf, r: r, size: size}

	br := bufio.NewReader(io.NewSectionReader(r, 0, size))
	header, err := metadata.ReadDeltaArchiveHeader(br)
	if err != nil {
		return nil, &FormatError{Msg: "bad header", Err: err}
	}
	if !conf.versionSupported(header.Version) {
		return nil, formatErrf("unsupported payload version %d", header.Version)
	}
	if header.ManifestSize > conf.maxManifestSize() {
		return nil, formatErrf("declared manifest size %d exceeds limit %d",
			header.ManifestSize, conf.maxManifestSize())
	}
	p.Header = header

	extra := int64(0)
	if header.Version >= 2 {
		var lenbuf [4]byte
		if _, err := io.ReadFull(br, lenbuf[:]); err != nil {
			return nil, &FormatError{Msg: "truncated metadata signature length", Err: err}
		}
		sigLen := binary.BigEndian.Uint32(lenbuf[:])
		p.MetadataSignature = make([]byte, sigLen)
		if _, err := io.ReadFull(br, p.MetadataSignature); err != nil {
			return nil, &FormatError{Msg: "truncated metadata signature", Err: err}
		}
		extra = 4 + int64(sigLen)
	}

	manifestBytes := make([]byte, header.ManifestSize)
	if _, err := io.ReadFull(br, manifestBytes); err != nil {
		return nil, &FormatError{Msg: "truncated manifest", Err: err}
	}

	manifest := &metadata.DeltaArchiveManifest{}
	if err := proto.Unmarshal(manifestBytes, manifest); err != nil {
		return nil, &FormatError{Msg: "undecodable manifest", Err: err}
	}
	p.Manifest = manifest

	p.blobOffset = metadata.HeaderSize + extra + int64(header.ManifestSize)
	if p.blobOffset > size {
		return nil, formatErrf("manifest extends past end of payload")
	}

	if err := p.frameSignatures(); err != nil {
		return nil, err
	}
	if err := p.validateOperations(); err != nil {
		return nil, err
	}

	plog.Debugf("parsed payload: version %d, %d byte manifest, %d byte blob, %d operations",
		header.Version, header.ManifestSize, p.blobSize, len(manifest.GetInstallOperations()))
	return p, nil
}

// frameSignatures locates the trailing signature region from the manifest
// and pins down the blob length. The container must account for every
// byte: header + manifest + blob + signatures == file size.
func (p *Payload) frameSignatures() error {
	m := p.Manifest
	if (m.SignaturesOffset == nil) != (m.SignaturesSize == nil) {
		return formatErrf("manifest declares signature offset without size or vice versa")
	}
	if m.SignaturesOffset == nil {
		p.blobSize = p.size - p.blobOffset
		p.sigOffset = p.size
		return nil
	}

	off, sz := m.GetSignaturesOffset(), m.GetSignaturesSize()
	if off > math.MaxInt64-uint64(p.blobOffset) || sz > math.MaxInt64 {
		return formatErrf("signature region out of range")
	}
	sigStart := p.blobOffset + int64(off)
	if sigStart > p.size || int64(sz) > p.size-sigStart {
		return formatErrf("signature region extends past end of payload")
	}
	if sigStart+int64(sz) != p.size {
		return formatErrf("container length mismatch: %d trailing bytes after signatures",
			p.size-sigStart-int64(sz))
	}
	p.sigOffset = sigStart
	p.blobSize = sigStart - p.blobOffset
	return nil
}

// validateOperations applies the structural invariants every operation
// must satisfy before any of them may be interpreted: data lies within
// the blob region, extent lists are ordered and non-overlapping, and
// attached data lengths are consistent with the operation type.
func (p *Payload) validateOperations() error {
	blockSize := p.Manifest.GetBlockSize()
	for i, op := range p.InstallOperations() {
		if err := p.validateOperation(op, blockSize); err != nil {
			return formatErrf("operation %d: %v", i, err)
		}
	}
	return nil
}

func (p *Payload) validateOperation(op *metadata.InstallOperation, blockSize uint32) error {
	dataOff, dataLen := uint64(op.GetDataOffset()), uint64(op.GetDataLength())
	if dataOff+dataLen > uint64(p.blobSize) {
		return formatErrf("data [%d,%d) outside blob of %d bytes",
			dataOff, dataOff+dataLen, p.blobSize)
	}

	// Ordering and overlap are checked now, bounds against the target
	// capacity when the target is known.
	srcRanges, err := translateExtents(op.GetSrcExtents(), blockSize, 0)
	if err != nil {
		return err
	}
	dstRanges, err := translateExtents(op.GetDstExtents(), blockSize, 0)
	if err != nil {
		return err
	}
	srcBytes, dstBytes := rangesBytes(srcRanges), rangesBytes(dstRanges)

	switch op.GetType() {
	case metadata.InstallOperation_REPLACE:
		if int64(dataLen) != dstBytes {
			return formatErrf("REPLACE carries %d bytes for %d bytes of extents", dataLen, dstBytes)
		}
	case metadata.InstallOperation_REPLACE_BZ, metadata.InstallOperation_REPLACE_XZ:
		if dataLen == 0 {
			return formatErrf("compressed replace without data")
		}
	case metadata.InstallOperation_MOVE, metadata.InstallOperation_SOURCE_COPY:
		if dataLen != 0 {
			return formatErrf("copy operation with %d bytes of attached data", dataLen)
		}
		if srcBytes != dstBytes {
			return formatErrf("copy of %d bytes into %d bytes", srcBytes, dstBytes)
		}
	case metadata.InstallOperation_BSDIFF, metadata.InstallOperation_SOURCE_BSDIFF:
		if dataLen == 0 {
			return formatErrf("bsdiff operation without patch data")
		}
		if len(op.GetSrcExtents()) == 0 {
			return formatErrf("bsdiff operation without source extents")
		}
	case metadata.InstallOperation_ZERO, metadata.InstallOperation_DISCARD:
		if dataLen != 0 {
			return formatErrf("zero operation with %d bytes of attached data", dataLen)
		}
	default:
		return formatErrf("unknown operation type %d", op.GetType())
	}

	if len(op.GetDstExtents()) == 0 {
		return formatErrf("operation without destination extents")
	}
	return nil
}

// InstallOperations returns the partition operations followed by the
// kernel operations, the order they are applied in.
func (p *Payload) InstallOperations() []*metadata.InstallOperation {
	ops := p.Manifest.GetInstallOperations()
	return append(ops[:len(ops):len(ops)], p.Manifest.GetKernelInstallOperations()...)
}

// Size returns the total payload length in bytes.
func (p *Payload) Size() int64 { return p.size }

// BlobSize returns the length of the data blob region.
func (p *Payload) BlobSize() int64 { return p.blobSize }

// Verified reports whether a full Verify pass has succeeded.
func (p *Payload) Verified() bool { return p.verified }

// BlobReader returns a reader over the whole blob region.
func (p *Payload) BlobReader() *io.SectionReader {
	return io.NewSectionReader(p.r, p.blobOffset, p.blobSize)
}

// DataReader returns a reader over one operation's attached data.
func (p *Payload) DataReader(op *metadata.InstallOperation) *io.SectionReader {
	return io.NewSectionReader(p.r, p.blobOffset+int64(op.GetDataOffset()), int64(op.GetDataLength()))
}

// Signatures decodes the trailing signature set. Payloads without one
// return an empty set.
func (p *Payload) Signatures() (*metadata.Signatures, error) {
	sigs := &metadata.Signatures{}
	if p.sigOffset == p.size {
		return sigs, nil
	}
	buf := make([]byte, p.size-p.sigOffset)
	if _, err := p.r.ReadAt(buf, p.sigOffset); err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(buf, sigs); err != nil {
		return nil, &FormatError{Msg: "undecodable signature set", Err: err}
	}
	return sigs, nil
}
