package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

const checkpointKey = "projection:checkpoint"

type checkpoint struct {
	Height  uint64                 `json:"height"`
	TipHash string                 `json:"tip_hash"`
	TxCount int                    `json:"tx_count"`
	Cases   map[string]*CaseRecord `json:"cases"`
}

// SaveCheckpoint caches the projection so a restart can skip the replay of
// the first Height blocks.
func SaveCheckpoint(backend storage.StateBackend, st *State) error {
	cp := checkpoint{
		Height:  st.height,
		TipHash: st.tipHash,
		TxCount: st.txCount,
		Cases:   st.cases,
	}
	if err := storage.PutJSON(backend, checkpointKey, cp); err != nil {
		return fmt.Errorf("save projection checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint returns the cached projection, or nil if none was saved.
// The result is unverified; compare it with a fold of the chain before use.
func LoadCheckpoint(backend storage.StateBackend) (*State, error) {
	var cp checkpoint
	err := storage.GetJSON(backend, checkpointKey, &cp)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load projection checkpoint: %w", err)
	}
	st := Empty()
	st.height = cp.Height
	st.tipHash = cp.TipHash
	st.txCount = cp.TxCount
	for id, rec := range cp.Cases {
		if rec == nil {
			continue
		}
		st.cases[id] = rec.clone()
		st.byStatus[rec.Status]++
		st.byType[rec.Type]++
	}
	return st, nil
}

// Equal reports whether two projections hold the same cases at the same
// height and tip.
func (s *State) Equal(o *State) bool {
	if s.height != o.height || s.tipHash != o.tipHash || s.txCount != o.txCount || len(s.cases) != len(o.cases) {
		return false
	}
	a, err := json.Marshal(s.normalized())
	if err != nil {
		return false
	}
	b, err := json.Marshal(o.normalized())
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (s *State) normalized() map[string]*CaseRecord {
	out := make(map[string]*CaseRecord, len(s.cases))
	for id, rec := range s.cases {
		out[id] = rec.clone()
	}
	return out
}
