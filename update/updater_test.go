// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package update_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"os"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/kr/binarydist"
	"github.com/ulikunitz/xz"

	"github.com/flatcar/ue-go/update"
	"github.com/flatcar/ue-go/update/generator"
	"github.com/flatcar/ue-go/update/metadata"
)

func applyPayload(t *testing.T, path, dstPath string) error {
	t.Helper()
	u := update.Updater{
		DstPartition: dstPath,
		Config:       testTrustedConfig(t),
	}
	if err := u.UsePayload(openPayload(t, path)); err != nil {
		return err
	}
	return u.Update()
}

func TestUpdateReplace(t *testing.T) {
	data := blockOf(0xaa)
	path := buildPayload(t, testSignKey(t), []*metadata.InstallOperation{
		replaceOp(0, data),
	}, data)
	dst := prefilled(t, 1, 0x00)

	if err := applyPayload(t, path, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), data) {
		t.Error("target block does not hold the replacement data")
	}
}

// A payload signed by an untrusted key must leave the target untouched:
// verification fails before the destination is even opened.
func TestUpdateUntrustedLeavesTargetAlone(t *testing.T) {
	data := blockOf(0xaa)
	path := buildPayload(t, testSignKey(t), []*metadata.InstallOperation{
		replaceOp(0, data),
	}, data)
	dst := prefilled(t, 1, 0x77)

	stranger, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	u := update.Updater{
		DstPartition: dst,
		Config:       update.Config{TrustedKeys: []*rsa.PublicKey{&stranger.PublicKey}},
	}
	if err := u.UsePayload(openPayload(t, path)); err != nil {
		t.Fatal(err)
	}
	err = u.Update()
	var serr *update.SecurityError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SecurityError, got %v", err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), blockOf(0x77)) {
		t.Error("target was modified by a rejected payload")
	}
}

// REPLACE then MOVE in manifest order: the move must observe the
// replaced contents, not the original ones.
func TestUpdateReplaceThenMove(t *testing.T) {
	data := blockOf(0xc3)
	path := buildPayload(t, testSignKey(t), []*metadata.InstallOperation{
		replaceOp(0, data),
		moveOp(0, 1, 1),
	}, data)
	dst := prefilled(t, 2, 0x00)

	if err := applyPayload(t, path, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), data) {
		t.Error("block 0 does not hold the replacement data")
	}
	if !bytes.Equal(readBlock(t, dst, 1), data) {
		t.Error("move copied stale data instead of the replaced block")
	}
}

// A bad per-operation hash mid-payload stops exactly there: earlier
// operations stay applied, later ones never run.
func TestUpdateStopsAtBadOperationHash(t *testing.T) {
	var data []byte
	var ops []*metadata.InstallOperation
	for i := 0; i < 5; i++ {
		block := blockOf(0x10 + byte(i))
		ops = append(ops, replaceOp(uint64(i), block))
		data = append(data, block...)
	}
	ops[2].DataSha256Hash[0] ^= 0xff
	path := buildPayload(t, testSignKey(t), ops, data)
	dst := prefilled(t, 5, 0x00)

	err := applyPayload(t, path, dst)
	var ierr *update.IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if ierr.Operation != 2 {
		t.Errorf("failure attributed to operation %d, expected 2", ierr.Operation)
	}

	for i := 0; i < 2; i++ {
		if !bytes.Equal(readBlock(t, dst, i), blockOf(0x10+byte(i))) {
			t.Errorf("operation %d should have been applied before the failure", i)
		}
	}
	for i := 2; i < 5; i++ {
		if !bytes.Equal(readBlock(t, dst, i), blockOf(0x00)) {
			t.Errorf("block %d was written past the failed operation", i)
		}
	}
}

// Overlapping move: source blocks {0,1} into destination blocks {1,2}.
// The source region is staged first, so block 1 must receive the old
// block 0, not its own overwritten contents.
func TestUpdateOverlappingMove(t *testing.T) {
	path := buildPayload(t, testSignKey(t), []*metadata.InstallOperation{
		moveOp(0, 1, 2),
	}, nil)
	dst := prefilled(t, 3, 0x00)
	w, err := os.OpenFile(dst, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.WriteAt(blockOf(0x0a), 0)
	w.WriteAt(blockOf(0x0b), generator.BlockSize)
	w.WriteAt(blockOf(0x0c), 2*generator.BlockSize)
	w.Close()

	if err := applyPayload(t, path, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), blockOf(0x0a)) {
		t.Error("block 0 should be untouched")
	}
	if !bytes.Equal(readBlock(t, dst, 1), blockOf(0x0a)) {
		t.Error("block 1 should hold the old block 0")
	}
	if !bytes.Equal(readBlock(t, dst, 2), blockOf(0x0b)) {
		t.Error("block 2 should hold the old block 1")
	}
}

func TestUpdateZero(t *testing.T) {
	path := buildPayload(t, testSignKey(t), []*metadata.InstallOperation{{
		Type: metadata.InstallOperation_ZERO.Enum(),
		DstExtents: []*metadata.Extent{{
			StartBlock: proto.Uint64(1),
			NumBlocks:  proto.Uint64(1),
		}},
	}}, nil)
	dst := prefilled(t, 3, 0xff)

	if err := applyPayload(t, path, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), blockOf(0xff)) {
		t.Error("block 0 should be untouched")
	}
	if !bytes.Equal(readBlock(t, dst, 1), blockOf(0x00)) {
		t.Error("block 1 should be zeroed")
	}
	if !bytes.Equal(readBlock(t, dst, 2), blockOf(0xff)) {
		t.Error("block 2 should be untouched")
	}
}

func TestUpdateReplaceXZ(t *testing.T) {
	plain := blockOf(0x42)
	var compressed bytes.Buffer
	xw, err := xz.NewWriter(&compressed)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write(plain); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256(compressed.Bytes())
	path := buildPayload(t, testSignKey(t), []*metadata.InstallOperation{{
		Type:       metadata.InstallOperation_REPLACE_XZ.Enum(),
		DataLength: proto.Uint32(uint32(compressed.Len())),
		DstExtents: []*metadata.Extent{{
			StartBlock: proto.Uint64(0),
			NumBlocks:  proto.Uint64(1),
		}},
		DataSha256Hash: sum[:],
	}}, compressed.Bytes())
	dst := prefilled(t, 1, 0x00)

	if err := applyPayload(t, path, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), plain) {
		t.Error("target block does not hold the decompressed data")
	}
}

func TestUpdateBsdiff(t *testing.T) {
	old := blockOf(0x01)
	want := bytes.Repeat([]byte{0x01, 0x02}, generator.BlockSize/2)
	var patch bytes.Buffer
	if err := binarydist.Diff(bytes.NewReader(old), bytes.NewReader(want), &patch); err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256(patch.Bytes())
	path := buildPayload(t, testSignKey(t), []*metadata.InstallOperation{{
		Type:       metadata.InstallOperation_BSDIFF.Enum(),
		DataLength: proto.Uint32(uint32(patch.Len())),
		SrcExtents: []*metadata.Extent{{
			StartBlock: proto.Uint64(0),
			NumBlocks:  proto.Uint64(1),
		}},
		DstExtents: []*metadata.Extent{{
			StartBlock: proto.Uint64(0),
			NumBlocks:  proto.Uint64(1),
		}},
		DataSha256Hash: sum[:],
	}}, patch.Bytes())
	dst := prefilled(t, 1, 0x01)

	if err := applyPayload(t, path, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), want) {
		t.Error("target block does not hold the patched data")
	}
}

func TestUpdateSourceCopy(t *testing.T) {
	path := buildPayload(t, testSignKey(t), []*metadata.InstallOperation{{
		Type: metadata.InstallOperation_SOURCE_COPY.Enum(),
		SrcExtents: []*metadata.Extent{{
			StartBlock: proto.Uint64(0),
			NumBlocks:  proto.Uint64(1),
		}},
		DstExtents: []*metadata.Extent{{
			StartBlock: proto.Uint64(0),
			NumBlocks:  proto.Uint64(1),
		}},
	}}, nil)
	src := prefilled(t, 1, 0x99)
	dst := prefilled(t, 1, 0x00)

	// Without a source partition the delta cannot be applied.
	err := applyPayload(t, path, dst)
	var ferr *update.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError without a source, got %v", err)
	}

	u := update.Updater{
		DstPartition: dst,
		SrcPartition: src,
		Config:       testTrustedConfig(t),
	}
	if err := u.UsePayload(openPayload(t, path)); err != nil {
		t.Fatal(err)
	}
	if err := u.Update(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), blockOf(0x99)) {
		t.Error("target block does not hold the source data")
	}
}

func TestUpdateKernelTarget(t *testing.T) {
	pdata := blockOf(0x21)
	kdata := blockOf(0x22)
	gen := &generator.Generator{SignKey: testSignKey(t)}
	defer gen.Destroy()
	err := gen.Partition(&generator.Procedure{
		InstallProcedure: metadata.InstallProcedure{
			Operations: []*metadata.InstallOperation{replaceOp(0, pdata)},
		},
		ReadCloser: newByteStream(pdata),
	})
	if err != nil {
		t.Fatal(err)
	}
	err = gen.Kernel(&generator.Procedure{
		InstallProcedure: metadata.InstallProcedure{
			Operations: []*metadata.InstallOperation{replaceOp(0, kdata)},
		},
		ReadCloser: newByteStream(kdata),
	})
	if err != nil {
		t.Fatal(err)
	}
	path := tempPayloadPath(t)
	if err := gen.Write(path); err != nil {
		t.Fatal(err)
	}

	dst := prefilled(t, 1, 0x00)

	// Kernel operations with no kernel target configured are an error.
	err = applyPayload(t, path, dst)
	var ferr *update.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError without a kernel target, got %v", err)
	}

	kdst := prefilled(t, 1, 0x00)
	u := update.Updater{
		DstPartition: dst,
		DstKernel:    kdst,
		Config:       testTrustedConfig(t),
	}
	if err := u.UsePayload(openPayload(t, path)); err != nil {
		t.Fatal(err)
	}
	if err := u.Update(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(readBlock(t, dst, 0), pdata) {
		t.Error("partition target does not hold the partition data")
	}
	if !bytes.Equal(readBlock(t, kdst, 0), kdata) {
		t.Error("kernel target does not hold the kernel data")
	}
}

// The post-install hash from the manifest catches targets that end up
// with unexpected contents even when every operation succeeded.
func TestUpdateNewPartitionInfo(t *testing.T) {
	data := blockOf(0x66)
	sum := sha256.Sum256(data)

	build := func(hash []byte) string {
		gen := &generator.Generator{SignKey: testSignKey(t)}
		defer gen.Destroy()
		err := gen.Partition(&generator.Procedure{
			InstallProcedure: metadata.InstallProcedure{
				Operations: []*metadata.InstallOperation{replaceOp(0, data)},
				NewInfo: &metadata.InstallInfo{
					Hash: hash,
					Size: proto.Uint64(uint64(len(data))),
				},
			},
			ReadCloser: newByteStream(data),
		})
		if err != nil {
			t.Fatal(err)
		}
		path := tempPayloadPath(t)
		if err := gen.Write(path); err != nil {
			t.Fatal(err)
		}
		return path
	}

	if err := applyPayload(t, build(sum[:]), prefilled(t, 1, 0x00)); err != nil {
		t.Fatal(err)
	}

	wrong := make([]byte, sha256.Size)
	err := applyPayload(t, build(wrong), prefilled(t, 1, 0x00))
	var ierr *update.IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
}
