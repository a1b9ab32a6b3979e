// Package integrity re-validates a whole chain from its persisted blocks.
package integrity

import (
	"fmt"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/genesis"
)

// Result of a full chain walk. FirstInvalidIndex is nil when Valid.
type Result struct {
	Valid             bool   `json:"valid"`
	FirstInvalidIndex *int   `json:"first_invalid_index,omitempty"`
	Reason            string `json:"reason,omitempty"`
	Length            int    `json:"length"`
	Difficulty        int    `json:"difficulty"`
}

func invalid(i int, format string, args ...any) Result {
	return Result{FirstInvalidIndex: &i, Reason: fmt.Sprintf(format, args...)}
}

// Verify walks blocks from genesis and stops at the first failure. The
// difficulty in force for the whole chain is the one recorded in the genesis
// marker, so the result depends only on the blocks passed in.
func Verify(blocks []block.Block) Result {
	if len(blocks) == 0 {
		return invalid(0, "chain is empty")
	}
	difficulty, err := genesis.Difficulty(blocks[0])
	if err != nil {
		return invalid(0, "genesis: %v", err)
	}
	for i := range blocks {
		if r, ok := checkBlock(blocks, i, difficulty); !ok {
			r.Length = len(blocks)
			r.Difficulty = difficulty
			return r
		}
	}
	return Result{Valid: true, Length: len(blocks), Difficulty: difficulty}
}

func checkBlock(blocks []block.Block, i int, difficulty int) (Result, bool) {
	b := blocks[i]
	if b.Index != uint64(i) {
		return invalid(i, "index %d at position %d", b.Index, i), false
	}
	id, err := b.ComputeID()
	if err != nil {
		return invalid(i, "encode: %v", err), false
	}
	if id.String() != b.Hash {
		return invalid(i, "hash mismatch: stored %s, computed %s", b.Hash, id), false
	}
	if i == 0 {
		return Result{}, true
	}
	prev := blocks[i-1]
	if b.PreviousHash != prev.Hash {
		return invalid(i, "previous_hash %s does not match block %d hash %s", b.PreviousHash, i-1, prev.Hash), false
	}
	if !id.MeetsDifficulty(difficulty) {
		return invalid(i, "hash %s does not meet difficulty %d", id, difficulty), false
	}
	if b.Timestamp.Before(prev.Timestamp) {
		return invalid(i, "timestamp %s precedes block %d", b.Timestamp, i-1), false
	}
	if len(b.Transactions) == 0 {
		return invalid(i, "block carries no transactions"), false
	}
	for _, tx := range b.Transactions {
		if tx.Action == block.ActionGenesis {
			return invalid(i, "genesis marker outside block 0"), false
		}
	}
	return Result{}, true
}
