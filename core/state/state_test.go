package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

var t0 = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

type chainBuilder struct {
	blocks []block.Block
}

func newBuilder() *chainBuilder {
	g := block.Block{
		Index:     0,
		Timestamp: t0,
		Hash:      "genesis",
		Transactions: []block.Transaction{{
			TxID:    "g",
			Action:  block.ActionGenesis,
			CaseID:  "GENESIS-0",
			Payload: block.Payload{Genesis: &block.GenesisMarker{Difficulty: 1}},
		}},
	}
	return &chainBuilder{blocks: []block.Block{g}}
}

func (c *chainBuilder) add(tx block.Transaction) *chainBuilder {
	i := uint64(len(c.blocks))
	tx.TxID = fmt.Sprintf("tx-%d", i)
	tx.Timestamp = t0.Add(time.Duration(i) * time.Minute)
	c.blocks = append(c.blocks, block.Block{
		Index:        i,
		Timestamp:    tx.Timestamp,
		PreviousHash: c.blocks[i-1].Hash,
		Hash:         fmt.Sprintf("hash-%d", i),
		Transactions: []block.Transaction{tx},
	})
	return c
}

func created(id string) block.Transaction {
	return block.Transaction{
		Action:  block.ActionCaseCreated,
		CaseID:  id,
		Parties: &block.Parties{Plaintiff: "Demandante_1", Defendant: "Demandado_2"},
		Judge:   "Juez_X",
		Payload: block.Payload{Case: &block.CaseFiling{Type: block.CaseTypeCivil, Description: "d"}},
	}
}

func document(id, content string) block.Transaction {
	return block.Transaction{
		Action:  block.ActionDocumentAdded,
		CaseID:  id,
		Payload: block.Payload{Document: block.NewDocument("escrito.pdf", content, "secretario")},
	}
}

func hearing(id string) block.Transaction {
	return block.Transaction{
		Action:  block.ActionHearingScheduled,
		CaseID:  id,
		Payload: block.Payload{Hearing: &block.Hearing{Type: "oral", Date: "2024-05-10", Location: "Sala 1"}},
	}
}

func judgment(id string) block.Transaction {
	return block.Transaction{
		Action:  block.ActionJudgmentIssued,
		CaseID:  id,
		Payload: block.Payload{Judgment: &block.Judgment{Ruling: "favorable", Verdict: "condena", Details: "pago"}},
	}
}

func TestProjectFullLifecycle(t *testing.T) {
	c := newBuilder().
		add(created("EXP-2024-001")).
		add(document("EXP-2024-001", "demanda")).
		add(hearing("EXP-2024-001")).
		add(judgment("EXP-2024-001"))

	st, err := Project(c.blocks)
	require.NoError(t, err)

	rec, ok := st.Case("EXP-2024-001")
	require.True(t, ok)
	assert.Equal(t, StatusResuelto, rec.Status)
	assert.Len(t, rec.Documents, 1)
	assert.Len(t, rec.Hearings, 1)
	require.NotNil(t, rec.Judgment)
	assert.Equal(t, "condena", rec.Judgment.Verdict)
	assert.Len(t, rec.History, 4)
	assert.Equal(t, uint64(4), rec.History[3].BlockIndex)
	assert.Equal(t, "hash-4", rec.History[3].BlockHash)
	assert.Equal(t, t0.Add(time.Minute), rec.CreatedAt)
	assert.Equal(t, t0.Add(4*time.Minute), rec.UpdatedAt)

	assert.ErrorIs(t, st.Check(document("EXP-2024-001", "late")), ErrCaseClosed)
	assert.Equal(t, 5, st.TotalTransactions())
	assert.Equal(t, uint64(5), st.Height())
	assert.Equal(t, "hash-4", st.TipHash())
}

func TestStatusTransitions(t *testing.T) {
	c := newBuilder().add(created("A"))
	st, err := Project(c.blocks)
	require.NoError(t, err)
	rec, _ := st.Case("A")
	assert.Equal(t, StatusPresentado, rec.Status)

	c.add(hearing("A"))
	st, err = Project(c.blocks)
	require.NoError(t, err)
	rec, _ = st.Case("A")
	assert.Equal(t, StatusEnProceso, rec.Status)

	c.add(document("A", "x"))
	st, err = Project(c.blocks)
	require.NoError(t, err)
	rec, _ = st.Case("A")
	assert.Equal(t, StatusEnProceso, rec.Status)
	assert.Equal(t, map[string]int{"presentado": 0, "en_proceso": 1, "resuelto": 0}, st.StatusCounts())
}

func TestJudgmentStraightFromPresentado(t *testing.T) {
	st, err := Project(newBuilder().add(created("A")).add(judgment("A")).blocks)
	require.NoError(t, err)
	rec, _ := st.Case("A")
	assert.Equal(t, StatusResuelto, rec.Status)
}

func TestCaseIsolation(t *testing.T) {
	c := newBuilder().add(created("A")).add(created("B"))
	before, err := Project(c.blocks)
	require.NoError(t, err)
	bBefore, _ := before.Case("B")

	c.add(document("A", "x")).add(judgment("A"))
	after, err := Project(c.blocks)
	require.NoError(t, err)
	bAfter, _ := after.Case("B")

	assert.Equal(t, bBefore, bAfter)
	assert.Equal(t, map[string]int{"presentado": 1, "en_proceso": 0, "resuelto": 1}, after.StatusCounts())
	assert.Equal(t, map[string]int{"civil": 2}, after.TypeCounts())
}

func TestApplyBlockIsCopyOnWrite(t *testing.T) {
	c := newBuilder().add(created("A"))
	st, err := Project(c.blocks)
	require.NoError(t, err)

	c.add(document("A", "x"))
	next, err := ApplyBlock(st, c.blocks[2])
	require.NoError(t, err)

	old, _ := st.Case("A")
	assert.Equal(t, StatusPresentado, old.Status)
	assert.Empty(t, old.Documents)
	assert.Equal(t, uint64(2), st.Height())

	cur, _ := next.Case("A")
	assert.Equal(t, StatusEnProceso, cur.Status)
	assert.Len(t, cur.Documents, 1)
}

func TestProjectDeterministic(t *testing.T) {
	c := newBuilder().add(created("A")).add(created("B")).add(hearing("B")).add(document("A", "z"))
	a, err := Project(c.blocks)
	require.NoError(t, err)
	b, err := Project(c.blocks)
	require.NoError(t, err)
	assert.Equal(t, a.Cases(), b.Cases())
	assert.Equal(t, a.StatusCounts(), b.StatusCounts())
}

func TestApplyBlockRejections(t *testing.T) {
	st, err := Project(newBuilder().add(created("A")).blocks)
	require.NoError(t, err)

	dup := block.Block{Index: 2, Transactions: []block.Transaction{created("A")}}
	_, err = ApplyBlock(st, dup)
	assert.ErrorIs(t, err, ErrCaseExists)

	orphan := block.Block{Index: 2, Transactions: []block.Transaction{hearing("missing")}}
	_, err = ApplyBlock(st, orphan)
	assert.ErrorIs(t, err, ErrCaseNotFound)

	gap := block.Block{Index: 7, Transactions: []block.Transaction{hearing("A")}}
	_, err = ApplyBlock(st, gap)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	lateGenesis := block.Block{Index: 2, Transactions: []block.Transaction{{Action: block.ActionGenesis}}}
	_, err = ApplyBlock(st, lateGenesis)
	assert.ErrorIs(t, err, ErrBadGenesis)
}

func TestSameBlockCreateThenMutate(t *testing.T) {
	st, err := Project(newBuilder().blocks)
	require.NoError(t, err)
	b := block.Block{Index: 1, Hash: "h1", Transactions: []block.Transaction{created("A"), hearing("A")}}
	next, err := ApplyBlock(st, b)
	require.NoError(t, err)
	rec, _ := next.Case("A")
	assert.Equal(t, StatusEnProceso, rec.Status)
	assert.Equal(t, map[string]int{"presentado": 0, "en_proceso": 1, "resuelto": 0}, next.StatusCounts())
}

func TestVerifyDocument(t *testing.T) {
	st, err := Project(newBuilder().add(created("A")).add(document("A", "contrato original")).blocks)
	require.NoError(t, err)

	ok, err := VerifyDocument(st, "A", "contrato original")
	require.NoError(t, err)
	assert.True(t, ok.Verified)
	require.NotNil(t, ok.Document)
	assert.Equal(t, "escrito.pdf", ok.Document.Name)

	bad, err := VerifyDocument(st, "A", "contrato original.")
	require.NoError(t, err)
	assert.False(t, bad.Verified)
	assert.NotEqual(t, ok.ContentHash, bad.ContentHash)

	_, err = VerifyDocument(st, "nope", "x")
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestCheckpointRoundTrip(t *testing.T) {
	s, err := storage.NewMemStorage()
	require.NoError(t, err)
	defer s.Close()

	missing, err := LoadCheckpoint(s)
	require.NoError(t, err)
	assert.Nil(t, missing)

	st, err := Project(newBuilder().add(created("A")).add(hearing("A")).add(created("B")).blocks)
	require.NoError(t, err)
	require.NoError(t, SaveCheckpoint(s, st))

	loaded, err := LoadCheckpoint(s)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, st.Height(), loaded.Height())
	assert.Equal(t, st.TipHash(), loaded.TipHash())
	assert.Equal(t, st.TotalTransactions(), loaded.TotalTransactions())
	assert.Equal(t, st.StatusCounts(), loaded.StatusCounts())
	assert.Equal(t, st.Cases(), loaded.Cases())
}

func TestCheckpointEqualDetectsEdits(t *testing.T) {
	s, err := storage.NewMemStorage()
	require.NoError(t, err)
	defer s.Close()

	st, err := Project(newBuilder().add(created("A")).add(document("A", "x")).blocks)
	require.NoError(t, err)
	require.NoError(t, SaveCheckpoint(s, st))

	loaded, err := LoadCheckpoint(s)
	require.NoError(t, err)
	assert.True(t, st.Equal(loaded))
	assert.True(t, loaded.Equal(st))

	loaded.cases["A"].Status = StatusResuelto
	loaded.cases["A"].Judge = "Juez_Otro"
	assert.False(t, st.Equal(loaded))

	other, err := Project(newBuilder().add(created("A")).blocks)
	require.NoError(t, err)
	assert.False(t, st.Equal(other))
}
