// Package crypto is the contract SDK's crypto facade (§6 Host collaborators): the handful of
// primitives a compiled contract calls out to through the host boundary. Hashing is plain
// standard-library crypto/sha256 (spec.md §1 Non-goals names "cryptographic primitives"
// out of scope for this repository's core, and a single Sum256 call does not warrant a
// dependency); signature verification is backed by the secp256k1 curve implementation already in
// go.mod, the same curve the original xuperchain SDK (_examples/original_source) targets.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Sha256 returns the 32-byte SHA-256 digest of data.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HexEncode returns the lowercase hex encoding of data.
func HexEncode(data []byte) string {
	return hex.EncodeToString(data)
}

// HexDecode parses a hex string back into bytes.
func HexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid hex: %w", err)
	}
	return b, nil
}

// VerifyECDSA reports whether signature is a valid secp256k1 signature over hash under pubKey.
// pubKey is a compressed or uncompressed SEC1-encoded public key; signature is DER-encoded.
func VerifyECDSA(pubKey, signature, hash []byte) (bool, error) {
	pk, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false, fmt.Errorf("crypto: invalid public key: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false, fmt.Errorf("crypto: invalid signature: %w", err)
	}
	return sig.Verify(hash, pk), nil
}
