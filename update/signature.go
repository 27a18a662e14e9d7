// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package update

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/golang/protobuf/proto"

	"github.com/flatcar/ue-go/update/metadata"
)

// SignatureVersion is the version tag written into generated signatures.
// Verification does not filter on it: production payloads are observed
// with versions 1 and 2 and the numbering is not load-bearing.
const SignatureVersion = 2

// LoadPublicKey reads an RSA public key from a PEM file, accepting both
// PKCS1 ("RSA PUBLIC KEY") and PKIX ("PUBLIC KEY") encodings.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block found", path)
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an RSA public key", path)
		}
		return rsaPub, nil
	default:
		return nil, fmt.Errorf("%s: unexpected PEM block %q", path, block.Type)
	}
}

// LoadPrivateKey reads an RSA private key from a PEM file, accepting both
// PKCS1 ("RSA PRIVATE KEY") and PKCS8 ("PRIVATE KEY") encodings.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block found", path)
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an RSA private key", path)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("%s: unexpected PEM block %q", path, block.Type)
	}
}

// SignPayloadHash signs a payload digest, producing the trailing
// signature set appended to generated payloads.
func SignPayloadHash(digest []byte, key *rsa.PrivateKey) (*metadata.Signatures, error) {
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest)
	if err != nil {
		return nil, err
	}
	return &metadata.Signatures{
		Signatures: []*metadata.Signatures_Signature{{
			Version: proto.Uint32(SignatureVersion),
			Data:    sig,
		}},
	}, nil
}

// SignaturesSize predicts the encoded size of the signature set a key
// will produce. The manifest must declare signatures_size before the
// signature itself can be computed, which works because an RSA signature
// has the fixed length of its key modulus.
func SignaturesSize(key *rsa.PrivateKey) (uint64, error) {
	stub := &metadata.Signatures{
		Signatures: []*metadata.Signatures_Signature{{
			Version: proto.Uint32(SignatureVersion),
			Data:    make([]byte, key.Size()),
		}},
	}
	encoded, err := proto.Marshal(stub)
	if err != nil {
		return 0, err
	}
	return uint64(len(encoded)), nil
}

// verifySignatures attempts every (signature, trusted key) pair and
// reports whether any of them verifies the digest. Trying all pairs is
// what allows the signing key to rotate without flag days.
func verifySignatures(sigs *metadata.Signatures, keys []*rsa.PublicKey, digest []byte) bool {
	for i, sig := range sigs.GetSignatures() {
		if len(sig.GetData()) == 0 {
			continue
		}
		for _, key := range keys {
			if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest, sig.GetData()); err == nil {
				plog.Debugf("signature %d (version %d) verified", i, sig.GetVersion())
				return true
			}
		}
	}
	return false
}
