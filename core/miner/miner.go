// Package miner seals candidate blocks with proof-of-work.
package miner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/types/ids"
)

// checkEvery is how many nonces are tried between context checks.
const checkEvery = 4096

// ErrNonceSpace is returned if every uint64 nonce was tried.
var ErrNonceSpace = errors.New("nonce space exhausted")

// Seal searches nonces from 0 until the block hash has difficulty leading
// zero hex digits. The candidate is not modified; the sealed copy is
// returned. Cancelling ctx abandons the search and returns ctx.Err().
func Seal(ctx context.Context, candidate block.Block, difficulty int) (block.Block, error) {
	sealed := candidate.Clone()
	header, err := sealed.HeaderBytes()
	if err != nil {
		return block.Block{}, fmt.Errorf("encode header: %w", err)
	}
	start := time.Now()
	for nonce := uint64(0); ; nonce++ {
		if nonce%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return block.Block{}, err
			}
		}
		id := block.HashWithNonce(header, nonce)
		if id.MeetsDifficulty(difficulty) {
			sealed.Nonce = nonce
			sealed.Hash = id.String()
			log.Printf("[MINER] sealed block %d nonce=%d difficulty=%d in %s", sealed.Index, nonce, difficulty, time.Since(start))
			return sealed, nil
		}
		if nonce == math.MaxUint64 {
			return block.Block{}, ErrNonceSpace
		}
	}
}

// Validate checks that the stored hash matches the fields and meets the
// difficulty.
func Validate(b block.Block, difficulty int) error {
	id, err := b.ComputeID()
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if id.String() != b.Hash {
		return fmt.Errorf("hash mismatch: stored %s, computed %s", b.Hash, id)
	}
	if !id.MeetsDifficulty(difficulty) {
		return fmt.Errorf("hash %s does not meet difficulty %d", id, difficulty)
	}
	return nil
}

// Meets reports whether a hex hash satisfies difficulty.
func Meets(hash string, difficulty int) bool {
	id, err := ids.FromString(hash)
	if err != nil {
		return false
	}
	return id.MeetsDifficulty(difficulty)
}
