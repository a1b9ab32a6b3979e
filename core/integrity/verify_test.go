package integrity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/genesis"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/miner"
)

const difficulty = 2

func sealedChain(t *testing.T) []block.Block {
	t.Helper()
	t0 := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	g, err := genesis.CreateGenesisBlock(&genesis.GenesisConfig{GenesisTime: t0, Difficulty: difficulty})
	require.NoError(t, err)
	chain := []block.Block{g}

	txs := []block.Transaction{
		{Action: block.ActionCaseCreated, CaseID: "EXP-1", Parties: &block.Parties{Plaintiff: "p", Defendant: "d"},
			Payload: block.Payload{Case: &block.CaseFiling{Type: block.CaseTypePenal}}},
		{Action: block.ActionDocumentAdded, CaseID: "EXP-1",
			Payload: block.Payload{Document: block.NewDocument("acta", "texto", "clerk")}},
		{Action: block.ActionJudgmentIssued, CaseID: "EXP-1",
			Payload: block.Payload{Judgment: &block.Judgment{Ruling: "r"}}},
	}
	for i, tx := range txs {
		prev := chain[len(chain)-1]
		ts := t0.Add(time.Duration(i+1) * time.Second)
		tx.Timestamp = ts
		cand := block.Block{Index: prev.Index + 1, Timestamp: ts, PreviousHash: prev.Hash, Transactions: []block.Transaction{tx}}
		sealed, err := miner.Seal(context.Background(), cand, difficulty)
		require.NoError(t, err)
		chain = append(chain, sealed)
	}
	return chain
}

func clone(chain []block.Block) []block.Block {
	out := make([]block.Block, len(chain))
	for i := range chain {
		out[i] = chain[i].Clone()
	}
	return out
}

func TestVerifyValidChain(t *testing.T) {
	chain := sealedChain(t)
	r := Verify(chain)
	assert.True(t, r.Valid, r.Reason)
	assert.Nil(t, r.FirstInvalidIndex)
	assert.Equal(t, 4, r.Length)
	assert.Equal(t, difficulty, r.Difficulty)

	// pure function of the blocks
	assert.Equal(t, r, Verify(chain))
}

func TestVerifyGenesisOnly(t *testing.T) {
	chain := sealedChain(t)[:1]
	assert.True(t, Verify(chain).Valid)
}

func TestVerifyDetectsTampering(t *testing.T) {
	cases := map[string]struct {
		at     int
		mutate func(c []block.Block)
	}{
		"document hash flipped": {2, func(c []block.Block) {
			h := []byte(c[2].Transactions[0].Payload.Document.ContentHash)
			if h[0] == 'a' {
				h[0] = 'b'
			} else {
				h[0] = 'a'
			}
			c[2].Transactions[0].Payload.Document.ContentHash = string(h)
		}},
		"stored hash edited":  {3, func(c []block.Block) { c[3].Hash = c[3].Hash[:63] + "x" }},
		"judgment rewritten":  {3, func(c []block.Block) { c[3].Transactions[0].Payload.Judgment.Ruling = "other" }},
		"genesis description": {0, func(c []block.Block) { c[0].Transactions[0].Payload.Genesis.Description = "x" }},
		"nonce changed":       {1, func(c []block.Block) { c[1].Nonce++ }},
		"case id changed":     {1, func(c []block.Block) { c[1].Transactions[0].CaseID = "EXP-2" }},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			chain := clone(sealedChain(t))
			tc.mutate(chain)
			r := Verify(chain)
			assert.False(t, r.Valid)
			require.NotNil(t, r.FirstInvalidIndex)
			assert.Equal(t, tc.at, *r.FirstInvalidIndex)
			assert.NotEmpty(t, r.Reason)
		})
	}
}

func TestVerifyDetectsBrokenLink(t *testing.T) {
	chain := clone(sealedChain(t))
	// a correctly sealed block that points at the wrong parent
	cand := chain[2].Clone()
	cand.PreviousHash = chain[0].Hash
	resealed, err := miner.Seal(context.Background(), cand, difficulty)
	require.NoError(t, err)
	chain[2] = resealed

	r := Verify(chain)
	assert.False(t, r.Valid)
	require.NotNil(t, r.FirstInvalidIndex)
	assert.Equal(t, 2, *r.FirstInvalidIndex)
}

func TestVerifyDetectsUnsealedBlock(t *testing.T) {
	chain := clone(sealedChain(t))
	cand := chain[1].Clone()
	// search from a nonce that misses the target, then store the honest hash
	for n := uint64(0); ; n++ {
		cand.Nonce = n
		id, err := cand.ComputeID()
		require.NoError(t, err)
		if !id.MeetsDifficulty(difficulty) {
			cand.Hash = id.String()
			break
		}
	}
	chain[1] = cand
	r := Verify(chain)
	assert.False(t, r.Valid)
	require.NotNil(t, r.FirstInvalidIndex)
	assert.Equal(t, 1, *r.FirstInvalidIndex)
}

func TestVerifyEmptyChain(t *testing.T) {
	r := Verify(nil)
	assert.False(t, r.Valid)
	require.NotNil(t, r.FirstInvalidIndex)
	assert.Equal(t, 0, *r.FirstInvalidIndex)
}
