// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

// Package generator assembles and signs update payloads, primarily for
// producing release images and test fixtures for the payload engine.
package generator

import (
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/coreos/pkg/capnslog"
	"github.com/golang/protobuf/proto"

	"github.com/flatcar/ue-go/lang/destructor"
	"github.com/flatcar/ue-go/update"
	"github.com/flatcar/ue-go/update/metadata"
)

var plog = capnslog.NewPackageLogger("github.com/flatcar/ue-go", "update/generator")

// BlockSize is the fixed update block size written into manifests.
const BlockSize = 4096

// Procedure couples the install operations for one target with the data
// stream backing them. The reader must yield each operation's attached
// data in operation order.
type Procedure struct {
	metadata.InstallProcedure
	io.ReadCloser
}

// Generator accumulates install procedures and writes them out as a
// payload file. The zero value is a working generator for an unsigned
// payload; set SignKey to produce signed ones. Call Destroy when done.
type Generator struct {
	// SignKey signs the payload with RSA PKCS1v15/SHA-256. Unsigned
	// payloads are only accepted by the engine in tests, so anything
	// meant for a real updater needs a key.
	SignKey *rsa.PrivateKey

	partition *Procedure
	kernel    *Procedure
	cleanup   destructor.MultiDestructor
}

// Partition stages the install procedure for the root partition.
func (g *Generator) Partition(proc *Procedure) error {
	if g.partition != nil {
		return fmt.Errorf("partition procedure already staged")
	}
	g.partition = proc
	g.cleanup.AddCloser(proc)
	return nil
}

// Kernel stages the install procedure for the kernel.
func (g *Generator) Kernel(proc *Procedure) error {
	if g.kernel != nil {
		return fmt.Errorf("kernel procedure already staged")
	}
	g.kernel = proc
	g.cleanup.AddCloser(proc)
	return nil
}

// Destroy releases the staged procedure streams.
func (g *Generator) Destroy() {
	g.cleanup.Destroy()
}

// Write assembles header, manifest, data blobs and signatures into the
// payload file at path.
func (g *Generator) Write(path string) error {
	spool, err := os.CreateTemp("", "ue-blob-")
	if err != nil {
		return err
	}
	defer os.Remove(spool.Name())
	defer spool.Close()

	manifest := &metadata.DeltaArchiveManifest{
		BlockSize:    proto.Uint32(BlockSize),
		MinorVersion: proto.Uint32(0),
	}

	offset := uint64(0)
	if g.partition != nil {
		if err := spoolOperations(spool, g.partition, &offset); err != nil {
			return err
		}
		manifest.InstallOperations = g.partition.Operations
		manifest.OldPartitionInfo = g.partition.OldInfo
		manifest.NewPartitionInfo = g.partition.NewInfo
	}
	if g.kernel != nil {
		if err := spoolOperations(spool, g.kernel, &offset); err != nil {
			return err
		}
		manifest.KernelInstallOperations = g.kernel.Operations
		manifest.OldKernelInfo = g.kernel.OldInfo
		manifest.NewKernelInfo = g.kernel.NewInfo
	}
	blobLen := offset

	var sigSize uint64
	if g.SignKey != nil {
		if sigSize, err = update.SignaturesSize(g.SignKey); err != nil {
			return err
		}
		manifest.SignaturesOffset = proto.Uint64(blobLen)
		manifest.SignaturesSize = proto.Uint64(sigSize)
	}

	manifestBytes, err := proto.Marshal(manifest)
	if err != nil {
		return err
	}

	header := metadata.DeltaArchiveHeader{
		Version:      metadata.Version,
		ManifestSize: uint64(len(manifestBytes)),
	}
	copy(header.Magic[:], metadata.Magic)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	// Everything before the signatures feeds the signature digest.
	digest := sha256.New()
	w := io.MultiWriter(out, digest)

	if _, err := header.WriteTo(w); err != nil {
		return err
	}
	if _, err := w.Write(manifestBytes); err != nil {
		return err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.Copy(w, spool); err != nil {
		return err
	}

	if g.SignKey != nil {
		sigs, err := update.SignPayloadHash(digest.Sum(nil), g.SignKey)
		if err != nil {
			return err
		}
		sigBytes, err := proto.Marshal(sigs)
		if err != nil {
			return err
		}
		if uint64(len(sigBytes)) != sigSize {
			return fmt.Errorf("signature came out %d bytes, manifest promised %d",
				len(sigBytes), sigSize)
		}
		if _, err := out.Write(sigBytes); err != nil {
			return err
		}
	}

	plog.Infof("wrote payload %s: %d byte manifest, %d byte blob", path, len(manifestBytes), blobLen)
	return out.Sync()
}

// spoolOperations copies each operation's attached data from the
// procedure stream into the blob spool, assigning blob offsets in order.
func spoolOperations(spool *os.File, proc *Procedure, offset *uint64) error {
	for _, op := range proc.Operations {
		n := op.GetDataLength()
		if n == 0 {
			continue
		}
		if *offset > math.MaxUint32 {
			return fmt.Errorf("blob grew past the 4GiB the data offset field can address")
		}
		op.DataOffset = proto.Uint32(uint32(*offset))
		if _, err := io.CopyN(spool, proc, int64(n)); err != nil {
			return fmt.Errorf("spooling %d data bytes: %w", n, err)
		}
		*offset += uint64(n)
	}
	return nil
}
