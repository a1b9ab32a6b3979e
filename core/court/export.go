package court

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/integrity"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/signer"
)

// ExportBody is the signed part of an export.
type ExportBody struct {
	Chain      []block.Block `json:"chain"`
	Length     int           `json:"length"`
	Difficulty int           `json:"difficulty"`
	ChainRoot  string        `json:"chain_root"`
	ExportedAt time.Time     `json:"exported_at"`
}

// Export is a self-contained, node-signed copy of the chain.
type Export struct {
	ExportBody
	Signature         string `json:"signature"`
	SignedPayloadHash string `json:"signed_payload_hash"`
	PublicKey         string `json:"public_key"`
}

// Export snapshots the chain and signs it with the node key.
func (s *Service) Export() (Export, error) {
	if s.key == nil {
		return Export{}, errors.New("node key not configured")
	}
	blocks := s.chain.Snapshot().Blocks()
	body := ExportBody{
		Chain:      blocks,
		Length:     len(blocks),
		Difficulty: s.chain.Difficulty(),
		ChainRoot:  block.ChainRoot(blocks),
		ExportedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Export{}, err
	}
	sig := s.key.Sign(payload)
	audit.Record(s.audit, audit.EventChainExport, "chain", "success", "", map[string]string{
		"length":     fmt.Sprint(body.Length),
		"chain_root": body.ChainRoot,
	})
	return Export{
		ExportBody:        body,
		Signature:         sig.Signature,
		SignedPayloadHash: sig.SignedPayloadHash,
		PublicKey:         sig.PublicKey,
	}, nil
}

// VerifyExport checks an export offline: the signature over its body, the
// chain root, and the chain itself. When trustedKey is non-empty the export
// must also be signed by that key.
func VerifyExport(e Export, trustedKey string) (integrity.Result, error) {
	if trustedKey != "" && trustedKey != e.PublicKey {
		return integrity.Result{}, fmt.Errorf("export signed by %s, expected %s", e.PublicKey, trustedKey)
	}
	payload, err := json.Marshal(e.ExportBody)
	if err != nil {
		return integrity.Result{}, err
	}
	sig := signer.Signature{
		Algorithm:         signer.Algorithm,
		Signature:         e.Signature,
		SignedPayloadHash: e.SignedPayloadHash,
		PublicKey:         e.PublicKey,
	}
	if err := signer.VerifySignature(sig, payload); err != nil {
		return integrity.Result{}, err
	}
	if root := block.ChainRoot(e.Chain); root != e.ChainRoot {
		return integrity.Result{}, fmt.Errorf("chain root mismatch: export says %s, blocks give %s", e.ChainRoot, root)
	}
	return integrity.Verify(e.Chain), nil
}
