package signer

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"
)

const Algorithm = "Ed25519"

var ErrBadSignature = errors.New("signature does not match payload")

// Signature contains all signature metadata.
type Signature struct {
	Algorithm         string    `json:"algorithm"`
	Signature         string    `json:"signature"`
	SignedPayloadHash string    `json:"signed_payload_hash"`
	PublicKey         string    `json:"public_key"`
	Timestamp         time.Time `json:"timestamp"`
}

// Sign signs sha256(payload).
func (k *NodeKey) Sign(payload []byte) Signature {
	hash := sha256.Sum256(payload)
	return Signature{
		Algorithm:         Algorithm,
		Signature:         base64.StdEncoding.EncodeToString(ed25519.Sign(k.private, hash[:])),
		SignedPayloadHash: hex.EncodeToString(hash[:]),
		PublicKey:         k.PublicHex(),
		Timestamp:         time.Now().UTC(),
	}
}

// VerifySignature checks sig against payload using the public key it
// carries. Callers that care who signed must also compare sig.PublicKey.
func VerifySignature(sig Signature, payload []byte) error {
	if sig.Algorithm != Algorithm {
		return errors.New("unsupported algorithm")
	}
	pub, err := hex.DecodeString(sig.PublicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return errors.New("invalid public key")
	}
	raw, err := base64.StdEncoding.DecodeString(sig.Signature)
	if err != nil {
		return ErrBadSignature
	}
	hash := sha256.Sum256(payload)
	if hex.EncodeToString(hash[:]) != sig.SignedPayloadHash {
		return ErrBadSignature
	}
	if !ed25519.Verify(pub, hash[:], raw) {
		return ErrBadSignature
	}
	return nil
}
