// Package scan walks raw block records in a ledger database for offline
// inspection. Unlike the node it keeps going past records it cannot decode.
package scan

import (
	"sort"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/integrity"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

// Entry is one stored block record. Err is set when it does not decode.
type Entry struct {
	Key   string
	Block *block.Block
	Err   error
	Size  int
}

// Report is the outcome of a scan.
type Report struct {
	Entries   []Entry
	Decoded   int
	Undecoded int
	Integrity integrity.Result
}

// ScanChain reads every block record under the block prefix, sorted by
// block index, and verifies the blocks that decoded.
func ScanChain(backend storage.StateBackend) (Report, error) {
	var rep Report
	err := backend.Iterate(storage.BlockPrefix, func(key string, value []byte) error {
		e := Entry{Key: key, Size: len(value)}
		b, err := block.Deserialize(value)
		if err != nil {
			e.Err = err
			rep.Undecoded++
		} else {
			e.Block = b
			rep.Decoded++
		}
		rep.Entries = append(rep.Entries, e)
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	// Sort by block height; undecodable records keep key order at the end.
	sort.SliceStable(rep.Entries, func(i, j int) bool {
		a, b := rep.Entries[i].Block, rep.Entries[j].Block
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Index < b.Index
	})

	blocks := make([]block.Block, 0, rep.Decoded)
	for _, e := range rep.Entries {
		if e.Block != nil {
			blocks = append(blocks, *e.Block)
		}
	}
	rep.Integrity = integrity.Verify(blocks)
	return rep, nil
}
