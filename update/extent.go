// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package update

import (
	"io"
	"math"

	"github.com/flatcar/ue-go/update/metadata"
)

// byteRange is one extent translated to target byte addresses.
// A negative offset marks a sparse hole: the range occupies logical
// space in an operation's data stream but is never touched on disk.
type byteRange struct {
	offset int64
	length int64
}

func (r byteRange) sparse() bool { return r.offset < 0 }

// translateExtents maps an operation's extent list to byte ranges on a
// target of the given capacity. A capacity of zero means unknown, which
// skips the bounds check. The physical ranges must be address-ascending
// and non-overlapping; manifests violating that are rejected rather than
// applied in whatever order they imply.
func translateExtents(extents []*metadata.Extent, blockSize uint32, capacity int64) ([]byteRange, error) {
	bs := int64(blockSize)
	if bs <= 0 {
		return nil, formatErrf("invalid block size %d", blockSize)
	}

	ranges := make([]byteRange, 0, len(extents))
	prevEnd := int64(-1)
	for _, ext := range extents {
		blocks := ext.GetNumBlocks()
		if blocks == 0 {
			return nil, formatErrf("extent with zero blocks")
		}
		if blocks > math.MaxInt64/uint64(bs) {
			return nil, formatErrf("extent of %d blocks overflows", blocks)
		}
		length := int64(blocks) * bs

		start := ext.GetStartBlock()
		if start == metadata.SparseHole {
			ranges = append(ranges, byteRange{offset: -1, length: length})
			continue
		}
		if start > uint64(math.MaxInt64)/uint64(bs) {
			return nil, &OutOfBoundsError{Start: math.MaxInt64, End: math.MaxInt64, Capacity: capacity}
		}
		offset := int64(start) * bs
		if offset > math.MaxInt64-length {
			return nil, &OutOfBoundsError{Start: offset, End: math.MaxInt64, Capacity: capacity}
		}
		end := offset + length
		if capacity > 0 && end > capacity {
			return nil, &OutOfBoundsError{Start: offset, End: end, Capacity: capacity}
		}

		if offset < prevEnd {
			return nil, formatErrf("extents overlap or are out of order at block %d", start)
		}
		prevEnd = end

		ranges = append(ranges, byteRange{offset: offset, length: length})
	}
	return ranges, nil
}

// rangesBytes is the logical capacity of the translated extent list,
// sparse holes included.
func rangesBytes(ranges []byteRange) int64 {
	var total int64
	for _, r := range ranges {
		total += r.length
	}
	return total
}

// extentWriter fills translated extents in order, each to its full byte
// capacity before advancing to the next. Bytes destined for sparse holes
// are consumed but not written.
type extentWriter struct {
	dst    io.WriterAt
	ranges []byteRange
	idx    int
	pos    int64
	filled int64
}

func newExtentWriter(dst io.WriterAt, ranges []byteRange) *extentWriter {
	return &extentWriter{dst: dst, ranges: ranges}
}

func (w *extentWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		if w.idx >= len(w.ranges) {
			return written, formatErrf("operation produced more bytes than its extents hold")
		}
		cur := w.ranges[w.idx]
		n := cur.length - w.pos
		if int64(len(p)) < n {
			n = int64(len(p))
		}
		if !cur.sparse() {
			if _, err := w.dst.WriteAt(p[:n], cur.offset+w.pos); err != nil {
				return written, err
			}
		}
		w.pos += n
		w.filled += n
		if w.pos == cur.length {
			w.idx++
			w.pos = 0
		}
		p = p[n:]
		written += int(n)
	}
	return written, nil
}

// consumed reports how many logical bytes the writer has accepted.
func (w *extentWriter) consumed() int64 { return w.filled }

// readExtents stages the full contents of the translated extents into
// memory, in extent order. Sparse holes read as zeros.
func readExtents(src io.ReaderAt, ranges []byteRange) ([]byte, error) {
	buf := make([]byte, rangesBytes(ranges))
	pos := int64(0)
	for _, r := range ranges {
		if !r.sparse() {
			if _, err := src.ReadAt(buf[pos:pos+r.length], r.offset); err != nil {
				return nil, err
			}
		}
		pos += r.length
	}
	return buf, nil
}

// zeroExtents writes zeros across the physical parts of the translated
// extents, used by ZERO and DISCARD operations.
func zeroExtents(dst io.WriterAt, ranges []byteRange) error {
	const chunk = 1 << 20
	zeros := make([]byte, chunk)
	for _, r := range ranges {
		if r.sparse() {
			continue
		}
		for off, left := r.offset, r.length; left > 0; {
			n := int64(chunk)
			if left < n {
				n = left
			}
			if _, err := dst.WriteAt(zeros[:n], off); err != nil {
				return err
			}
			off += n
			left -= n
		}
	}
	return nil
}
