// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package update

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/golang/protobuf/proto"

	"github.com/flatcar/ue-go/update/metadata"
)

func ext(start, blocks uint64) *metadata.Extent {
	return &metadata.Extent{
		StartBlock: proto.Uint64(start),
		NumBlocks:  proto.Uint64(blocks),
	}
}

func TestTranslateExtents(t *testing.T) {
	ranges, err := translateExtents([]*metadata.Extent{ext(1, 2), ext(5, 1)}, 4096, 6*4096)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if ranges[0].offset != 4096 || ranges[0].length != 2*4096 {
		t.Errorf("unexpected first range: %+v", ranges[0])
	}
	if ranges[1].offset != 5*4096 || ranges[1].length != 4096 {
		t.Errorf("unexpected second range: %+v", ranges[1])
	}
	if total := rangesBytes(ranges); total != 3*4096 {
		t.Errorf("expected 3 blocks of bytes, got %d", total)
	}
}

func TestTranslateExtentsOutOfBounds(t *testing.T) {
	_, err := translateExtents([]*metadata.Extent{ext(4, 1)}, 4096, 4*4096)
	var oob *OutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("expected OutOfBoundsError, got %v", err)
	}
	if oob.Start != 4*4096 || oob.End != 5*4096 || oob.Capacity != 4*4096 {
		t.Errorf("unexpected bounds: %+v", oob)
	}

	// Unknown capacity skips the bounds check.
	if _, err := translateExtents([]*metadata.Extent{ext(4, 1)}, 4096, 0); err != nil {
		t.Errorf("unexpected error without capacity: %v", err)
	}
}

func TestTranslateExtentsUnordered(t *testing.T) {
	for _, extents := range [][]*metadata.Extent{
		{ext(5, 1), ext(1, 1)}, // descending
		{ext(1, 2), ext(2, 1)}, // overlapping
	} {
		_, err := translateExtents(extents, 4096, 0)
		var ferr *FormatError
		if !errors.As(err, &ferr) {
			t.Errorf("expected FormatError for %v, got %v", extents, err)
		}
	}
}

func TestTranslateExtentsSparseHole(t *testing.T) {
	ranges, err := translateExtents([]*metadata.Extent{
		ext(0, 1),
		ext(metadata.SparseHole, 2),
	}, 4096, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if !ranges[1].sparse() {
		t.Error("sentinel extent should be sparse")
	}
	if ranges[1].length != 2*4096 {
		t.Errorf("sparse range length %d", ranges[1].length)
	}
	// Sparse holes still count toward logical capacity.
	if total := rangesBytes(ranges); total != 3*4096 {
		t.Errorf("expected 3 blocks of logical bytes, got %d", total)
	}
}

func TestExtentWriterFillsInOrder(t *testing.T) {
	f := tempFile(t)

	ranges, err := translateExtents([]*metadata.Extent{ext(2, 1), ext(0, 1)}, 4, 0)
	if err == nil {
		t.Fatal("descending extents should not translate")
	}

	ranges, err = translateExtents([]*metadata.Extent{ext(0, 1), ext(2, 1)}, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	w := newExtentWriter(f, ranges)
	for _, chunk := range [][]byte{[]byte("abc"), []byte("def"), []byte("gh")} {
		if _, err := w.Write(chunk); err != nil {
			t.Fatal(err)
		}
	}
	if w.consumed() != 8 {
		t.Errorf("consumed %d bytes", w.consumed())
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("writing past the extents should fail")
	}

	content := make([]byte, 12)
	if _, err := f.ReadAt(content, 0); err != nil {
		t.Fatal(err)
	}
	want := append([]byte("abcd\x00\x00\x00\x00"), []byte("efgh")...)
	if !bytes.Equal(content, want) {
		t.Errorf("target content %q, want %q", content, want)
	}
}

func TestExtentWriterSkipsSparse(t *testing.T) {
	f := tempFile(t)

	ranges := []byteRange{
		{offset: 0, length: 4},
		{offset: -1, length: 4},
		{offset: 4, length: 4},
	}
	w := newExtentWriter(f, ranges)
	if _, err := w.Write([]byte("aaaaHOLEbbbb")); err != nil {
		t.Fatal(err)
	}
	if w.consumed() != 12 {
		t.Errorf("consumed %d bytes", w.consumed())
	}

	content := make([]byte, 8)
	if _, err := f.ReadAt(content, 0); err != nil {
		t.Fatal(err)
	}
	if string(content) != "aaaabbbb" {
		t.Errorf("target content %q", content)
	}
}

func TestZeroExtents(t *testing.T) {
	f := tempFile(t)
	if _, err := f.WriteAt(bytes.Repeat([]byte{0xff}, 12), 0); err != nil {
		t.Fatal(err)
	}

	if err := zeroExtents(f, []byteRange{{offset: 4, length: 4}}); err != nil {
		t.Fatal(err)
	}

	content := make([]byte, 12)
	if _, err := f.ReadAt(content, 0); err != nil {
		t.Fatal(err)
	}
	want := append(bytes.Repeat([]byte{0xff}, 4), 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff)
	if !bytes.Equal(content, want) {
		t.Errorf("target content %x, want %x", content, want)
	}
}

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "extent")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}
