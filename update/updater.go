// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package update

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/kr/binarydist"

	"github.com/flatcar/ue-go/update/metadata"
	"github.com/flatcar/ue-go/util"
)

// Updater applies a verified payload to the inactive slot. There is
// exactly one writer to the target; operations run strictly in manifest
// order and are never interleaved. A failed operation abandons the rest
// with no rollback: safety comes from the target being the inactive
// slot, not from transactional writes.
type Updater struct {
	// DstPartition is the inactive slot partition device or file.
	DstPartition string

	// SrcPartition backs SOURCE_COPY and SOURCE_BSDIFF reads for delta
	// payloads; it is the currently running slot's partition. MOVE and
	// BSDIFF read from DstPartition itself.
	SrcPartition string

	// DstKernel and SrcKernel are the corresponding kernel targets for
	// payloads carrying kernel_install_operations.
	DstKernel string
	SrcKernel string

	// DstCapacity overrides the destination capacity used for extent
	// bounds checks. Zero derives it from the target file size, falling
	// back to the manifest's new partition size.
	DstCapacity int64

	// Config is used when UsePayload parses and verifies.
	Config Config

	payload *Payload
}

// UsePayload parses the payload file the updater will apply.
func (u *Updater) UsePayload(f *os.File) error {
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	payload, err := NewPayload(f, fi.Size(), u.Config)
	if err != nil {
		return err
	}
	u.payload = payload
	return nil
}

// Update verifies the payload if it has not been verified yet and then
// applies every install operation. See UpdateContext for cancellation.
func (u *Updater) Update() error {
	return u.UpdateContext(context.Background())
}

// UpdateContext is Update with cancellation. Cancellation is honored
// only at operation boundaries so an extent is never left half-written
// by an external cancel; the in-flight operation always completes.
func (u *Updater) UpdateContext(ctx context.Context) error {
	p := u.payload
	if p == nil {
		return fmt.Errorf("no payload loaded")
	}
	if !p.verified {
		if err := p.Verify(); err != nil {
			return err
		}
	}
	if u.DstPartition == "" {
		return fmt.Errorf("no destination partition configured")
	}

	m := p.Manifest
	if err := u.applyTarget(ctx, p, m.GetInstallOperations(), u.DstPartition, u.SrcPartition,
		m.GetNewPartitionInfo(), "partition"); err != nil {
		return err
	}
	if kops := m.GetKernelInstallOperations(); len(kops) > 0 {
		if u.DstKernel == "" {
			return formatErrf("payload carries kernel operations but no kernel target is configured")
		}
		if err := u.applyTarget(ctx, p, kops, u.DstKernel, u.SrcKernel,
			m.GetNewKernelInfo(), "kernel"); err != nil {
			return err
		}
	}
	return nil
}

func (u *Updater) applyTarget(ctx context.Context, p *Payload, ops []*metadata.InstallOperation,
	dstPath, srcPath string, newInfo *metadata.InstallInfo, label string) error {
	dst, err := os.OpenFile(dstPath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return err
	}
	defer dst.Close()

	var src *os.File
	if srcPath != "" {
		if src, err = os.Open(srcPath); err != nil {
			return err
		}
		defer src.Close()
	}

	blockSize := p.Manifest.GetBlockSize()
	dstCap := u.DstCapacity
	if dstCap == 0 {
		dstCap = fileCapacity(dst)
	}
	if dstCap == 0 && newInfo.GetSize() > 0 {
		// The image itself may be shorter than the blocks holding it.
		dstCap = roundUp(int64(newInfo.GetSize()), int64(blockSize))
	}
	srcCap := int64(0)
	if src != nil {
		srcCap = fileCapacity(src)
	}

	plog.Infof("applying %d %s operations to %s", len(ops), label, dstPath)
	for i, op := range ops {
		// Cancellation only takes effect between operations.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := applyOp(p, i, op, dst, src, blockSize, dstCap, srcCap); err != nil {
			return err
		}
	}

	if err := verifyNewInfo(dst, newInfo, label); err != nil {
		return err
	}
	return dst.Sync()
}

func applyOp(p *Payload, i int, op *metadata.InstallOperation,
	dst, src *os.File, blockSize uint32, dstCap, srcCap int64) error {
	var data []byte
	if n := op.GetDataLength(); n > 0 {
		data = make([]byte, n)
		if _, err := io.ReadFull(p.DataReader(op), data); err != nil {
			return err
		}
		// The signature already covered these bytes; the per-operation
		// hash is re-checked anyway so a blob read gone wrong can never
		// be interpreted as operation input.
		if want := op.GetDataSha256Hash(); want != nil {
			sum := sha256.Sum256(data)
			if !hmac.Equal(sum[:], want) {
				return &IntegrityError{Operation: i, Msg: "operation data hash mismatch"}
			}
		}
	}

	dstRanges, err := translateExtents(op.GetDstExtents(), blockSize, dstCap)
	if err != nil {
		return err
	}
	dstBytes := rangesBytes(dstRanges)
	plog.Debugf("operation %d: %s, %d data bytes, %d target bytes",
		i, op.GetType(), len(data), dstBytes)

	switch op.GetType() {
	case metadata.InstallOperation_REPLACE:
		w := newExtentWriter(dst, dstRanges)
		if _, err := w.Write(data); err != nil {
			return err
		}
		return checkProduced(i, w, dstBytes)

	case metadata.InstallOperation_REPLACE_BZ:
		w := newExtentWriter(dst, dstRanges)
		if _, err := util.Bunzip2(w, bytes.NewReader(data)); err != nil {
			return &IntegrityError{Operation: i, Msg: fmt.Sprintf("bunzip2: %v", err)}
		}
		return checkProduced(i, w, dstBytes)

	case metadata.InstallOperation_REPLACE_XZ:
		w := newExtentWriter(dst, dstRanges)
		if _, err := util.UnXZ(w, bytes.NewReader(data)); err != nil {
			return &IntegrityError{Operation: i, Msg: fmt.Sprintf("unxz: %v", err)}
		}
		return checkProduced(i, w, dstBytes)

	case metadata.InstallOperation_ZERO, metadata.InstallOperation_DISCARD:
		return zeroExtents(dst, dstRanges)

	case metadata.InstallOperation_MOVE, metadata.InstallOperation_SOURCE_COPY:
		from := dst
		fromCap := dstCap
		if op.GetType() == metadata.InstallOperation_SOURCE_COPY {
			if src == nil {
				return formatErrf("operation %d: SOURCE_COPY without a source partition", i)
			}
			from, fromCap = src, srcCap
		}
		srcRanges, err := translateExtents(op.GetSrcExtents(), blockSize, fromCap)
		if err != nil {
			return err
		}
		// The whole source region is staged before the first destination
		// write, so overlapping src/dst ranges always read pre-copy bytes.
		staged, err := readExtents(from, srcRanges)
		if err != nil {
			return err
		}
		w := newExtentWriter(dst, dstRanges)
		if _, err := w.Write(staged); err != nil {
			return err
		}
		return checkProduced(i, w, dstBytes)

	case metadata.InstallOperation_BSDIFF, metadata.InstallOperation_SOURCE_BSDIFF:
		from := dst
		fromCap := dstCap
		if op.GetType() == metadata.InstallOperation_SOURCE_BSDIFF {
			if src == nil {
				return formatErrf("operation %d: SOURCE_BSDIFF without a source partition", i)
			}
			from, fromCap = src, srcCap
		}
		srcRanges, err := translateExtents(op.GetSrcExtents(), blockSize, fromCap)
		if err != nil {
			return err
		}
		old, err := readExtents(from, srcRanges)
		if err != nil {
			return err
		}
		var patched bytes.Buffer
		if err := binarydist.Patch(bytes.NewReader(old), &patched, bytes.NewReader(data)); err != nil {
			return &IntegrityError{Operation: i, Msg: fmt.Sprintf("bspatch: %v", err)}
		}
		w := newExtentWriter(dst, dstRanges)
		if _, err := w.Write(patched.Bytes()); err != nil {
			return err
		}
		return checkProduced(i, w, dstBytes)

	default:
		return formatErrf("operation %d: unknown type %d", i, op.GetType())
	}
}

// checkProduced enforces that an operation produced exactly the byte
// capacity of its destination extents, never more, never less.
func checkProduced(i int, w *extentWriter, want int64) error {
	if w.consumed() != want {
		return &IntegrityError{Operation: i,
			Msg: fmt.Sprintf("produced %d bytes for %d bytes of extents", w.consumed(), want)}
	}
	return nil
}

// verifyNewInfo re-hashes the produced target and compares it with the
// manifest's expected post-install state, when the manifest carries one.
func verifyNewInfo(f *os.File, info *metadata.InstallInfo, label string) error {
	if info == nil || info.GetHash() == nil {
		return nil
	}
	size := int64(info.GetSize())
	h := sha256.New()
	n, err := io.Copy(h, io.NewSectionReader(f, 0, size))
	if err != nil {
		return err
	}
	if n != size {
		return &IntegrityError{Operation: -1,
			Msg: fmt.Sprintf("%s is %d bytes, expected %d", label, n, size)}
	}
	if !hmac.Equal(h.Sum(nil), info.GetHash()) {
		return &IntegrityError{Operation: -1,
			Msg: fmt.Sprintf("%s hash does not match manifest new info", label)}
	}
	return nil
}

func roundUp(n, multiple int64) int64 {
	if multiple <= 0 {
		return n
	}
	return (n + multiple - 1) / multiple * multiple
}

func fileCapacity(f *os.File) int64 {
	fi, err := f.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}
