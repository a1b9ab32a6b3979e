package block

import (
	"crypto/sha256"
	"encoding/hex"
)

// MerkleRoot computes the Merkle root of a list of hashes (as hex strings).
// If the list is empty, returns an empty string.
func MerkleRoot(hashes []string) string {
	n := len(hashes)
	if n == 0 {
		return ""
	}
	level := append([]string(nil), hashes...)
	for n > 1 {
		var next []string
		for i := 0; i < n; i += 2 {
			right := level[i]
			if i+1 < n {
				right = level[i+1]
			}
			// Odd node: hash with itself
			h := sha256.New()
			h.Write([]byte(level[i]))
			h.Write([]byte(right))
			next = append(next, hex.EncodeToString(h.Sum(nil)))
		}
		level = next
		n = len(level)
	}
	return level[0]
}

// ChainRoot is the Merkle root over the block hashes of a chain. Export
// snapshots carry it so an auditor can pin the whole chain with one digest.
func ChainRoot(blocks []Block) string {
	hashes := make([]string, len(blocks))
	for i := range blocks {
		hashes[i] = blocks[i].Hash
	}
	return MerkleRoot(hashes)
}
