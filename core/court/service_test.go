package court

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/chain"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/signer"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/state"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

type fixture struct {
	svc   *Service
	store *storage.Storage
	audit *audit.MemoryAuditLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewMemStorage()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mem := &audit.MemoryAuditLogger{}
	c, err := chain.Open(store, chain.Config{Difficulty: 1, Audit: mem})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		c.Close()
	})

	key, err := signer.Generate()
	require.NoError(t, err)
	return &fixture{
		svc:   NewService(c, NewJudgeDirectory(store), key, mem),
		store: store,
		audit: mem,
	}
}

func sampleCase(id string) CreateCaseRequest {
	return CreateCaseRequest{
		CaseID:        id,
		CaseType:      block.CaseTypeCivil,
		PlaintiffName: "Juan Perez",
		DefendantName: "Empresa XYZ",
		JudgeID:       JudgeID("Maria Gonzalez", "Civil"),
		Description:   "Incumplimiento de contrato",
	}
}

func TestCreateCaseUsesAliases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref, err := f.svc.CreateCase(ctx, sampleCase("EXP-2024-001"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ref.Index)

	rec, err := f.svc.GetCase("EXP-2024-001")
	require.NoError(t, err)
	assert.Equal(t, PlaintiffAlias("Juan Perez"), rec.Parties.Plaintiff)
	assert.Equal(t, DefendantAlias("Empresa XYZ"), rec.Parties.Defendant)
	assert.Len(t, rec.Parties.Plaintiff, len("Demandante_")+16)

	raw, err := json.Marshal(f.svc.Chain().Snapshot().Blocks())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Juan Perez")
	assert.NotContains(t, string(raw), "Empresa XYZ")
}

func TestFollowUpEventsCarryJudge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := sampleCase("EXP-2024-002")
	_, err := f.svc.CreateCase(ctx, req)
	require.NoError(t, err)

	ref, err := f.svc.ScheduleHearing(ctx, "EXP-2024-002", ScheduleHearingRequest{Type: "inicial", Date: "2024-05-01", Location: "Sala 1"})
	require.NoError(t, err)
	b, ok := f.svc.Chain().GetBlock(ref.Index)
	require.True(t, ok)
	assert.Equal(t, req.JudgeID, b.Transactions[0].Judge)
}

func TestEndToEndStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 1, before.TotalBlocks)
	assert.Equal(t, 1, before.TotalTransactions)
	assert.Equal(t, 1, before.Difficulty)
	assert.Equal(t, map[string]int{"presentado": 0, "en_proceso": 0, "resuelto": 0}, before.CasesByStatus)

	_, err = f.svc.CreateCase(ctx, sampleCase("EXP-2024-001"))
	require.NoError(t, err)
	mid, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, before.TotalBlocks+1, mid.TotalBlocks)
	assert.Equal(t, before.TotalCases+1, mid.TotalCases)
	assert.Equal(t, before.CasesByStatus["presentado"]+1, mid.CasesByStatus["presentado"])

	_, err = f.svc.IssueJudgment(ctx, "EXP-2024-001", IssueJudgmentRequest{Ruling: "Condena", Verdict: "culpable", Details: "pago"})
	require.NoError(t, err)
	after, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, mid.CasesByStatus["presentado"]-1, after.CasesByStatus["presentado"])
	assert.Equal(t, mid.CasesByStatus["resuelto"]+1, after.CasesByStatus["resuelto"])
	assert.Equal(t, mid.TotalBlocks+1, after.TotalBlocks)
	assert.Equal(t, 1, after.UniqueCases)
	assert.Equal(t, map[string]int{"civil": 1}, after.CaseTypes)
	assert.Equal(t, 3, after.TotalTransactions)

	_, err = f.svc.AddDocument(ctx, "EXP-2024-001", AddDocumentRequest{Name: "a.pdf", Content: "x"})
	assert.ErrorIs(t, err, chain.ErrInvalidTransaction)
	ite, ok := chain.IsInvalidTransaction(err)
	require.True(t, ok)
	assert.Equal(t, chain.CodeClosed, ite.Code)
}

func TestCaseLifecycleAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateCase(ctx, sampleCase("EXP-2024-003"))
	require.NoError(t, err)
	_, err = f.svc.AddDocument(ctx, "EXP-2024-003", AddDocumentRequest{Name: "demanda.pdf", Content: "texto de la demanda", Uploader: "clerk"})
	require.NoError(t, err)
	_, err = f.svc.ScheduleHearing(ctx, "EXP-2024-003", ScheduleHearingRequest{Type: "inicial", Date: "2024-05-01", Location: "Sala 1"})
	require.NoError(t, err)

	rec, err := f.svc.GetCase("EXP-2024-003")
	require.NoError(t, err)
	assert.Equal(t, state.StatusEnProceso, rec.Status)
	require.Len(t, rec.History, 3)
	assert.Equal(t, block.ActionCaseCreated, rec.History[0].Action)
	assert.Equal(t, block.ActionHearingScheduled, rec.History[2].Action)

	cases := f.svc.ListCases()
	assert.Contains(t, cases, "EXP-2024-003")

	_, err = f.svc.GetCase("EXP-404")
	assert.True(t, IsNotFound(err))
}

func TestDuplicateAndUnknownCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateCase(ctx, sampleCase("EXP-2024-004"))
	require.NoError(t, err)

	_, err = f.svc.CreateCase(ctx, sampleCase("EXP-2024-004"))
	ite, ok := chain.IsInvalidTransaction(err)
	require.True(t, ok)
	assert.Equal(t, chain.CodeDuplicate, ite.Code)

	_, err = f.svc.ScheduleHearing(ctx, "EXP-NONE", ScheduleHearingRequest{Type: "x", Date: "2024-01-01", Location: "y"})
	ite, ok = chain.IsInvalidTransaction(err)
	require.True(t, ok)
	assert.Equal(t, chain.CodeNotFound, ite.Code)

	bad := sampleCase("EXP-2024-005")
	bad.CaseType = "maritime"
	_, err = f.svc.CreateCase(ctx, bad)
	ite, ok = chain.IsInvalidTransaction(err)
	require.True(t, ok)
	assert.Equal(t, chain.CodeMalformed, ite.Code)
}

func TestVerifyDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateCase(ctx, sampleCase("EXP-2024-006"))
	require.NoError(t, err)
	_, err = f.svc.AddDocument(ctx, "EXP-2024-006", AddDocumentRequest{Name: "prueba.pdf", Content: "evidencia", Uploader: "abogado"})
	require.NoError(t, err)

	res, err := f.svc.VerifyDocument("EXP-2024-006", "evidencia")
	require.NoError(t, err)
	assert.True(t, res.Verified)
	require.NotNil(t, res.Document)
	assert.Equal(t, "prueba.pdf", res.Document.Name)

	res, err = f.svc.VerifyDocument("EXP-2024-006", "evidencia alterada")
	require.NoError(t, err)
	assert.False(t, res.Verified)

	_, err = f.svc.VerifyDocument("EXP-404", "evidencia")
	assert.True(t, IsNotFound(err))
}

func TestJudgeDirectory(t *testing.T) {
	f := newFixture(t)
	j, err := f.svc.RegisterJudge("Maria Gonzalez", "Civil")
	require.NoError(t, err)
	assert.Equal(t, JudgeID("Maria Gonzalez", "Civil"), j.JudgeID)
	assert.Regexp(t, `^Juez_Maria_Gonzalez_[0-9a-f]{16}$`, j.JudgeID)

	again, err := f.svc.RegisterJudge("Maria Gonzalez", "Civil")
	require.NoError(t, err)
	assert.Equal(t, j.RegisteredAt, again.RegisteredAt)

	_, err = f.svc.RegisterJudge("Carlos Ruiz", "Penal")
	require.NoError(t, err)
	_, err = f.svc.RegisterJudge(" ", "Penal")
	assert.Error(t, err)

	judges, err := f.svc.ListJudges()
	require.NoError(t, err)
	assert.Len(t, judges, 2)

	stats, err := f.svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalJudges)

	registered := 0
	for _, e := range f.audit.Events() {
		if e.EventType == audit.EventJudgeRegistered && e.Result == "success" {
			registered++
		}
	}
	assert.Equal(t, 2, registered)
}

func TestExportRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateCase(ctx, sampleCase("EXP-2024-007"))
	require.NoError(t, err)

	exp, err := f.svc.Export()
	require.NoError(t, err)
	assert.Equal(t, 2, exp.Length)
	assert.Equal(t, block.ChainRoot(exp.Chain), exp.ChainRoot)

	raw, err := json.Marshal(exp)
	require.NoError(t, err)
	var decoded Export
	require.NoError(t, json.Unmarshal(raw, &decoded))

	res, err := VerifyExport(decoded, f.svc.key.PublicHex())
	require.NoError(t, err)
	assert.True(t, res.Valid)

	other, err := signer.Generate()
	require.NoError(t, err)
	_, err = VerifyExport(decoded, other.PublicHex())
	assert.Error(t, err)

	tampered := decoded
	tampered.Chain = append([]block.Block(nil), decoded.Chain...)
	tampered.Chain[1] = tampered.Chain[1].Clone()
	tampered.Chain[1].Transactions[0].Payload.Case.Description = "otra cosa"
	_, err = VerifyExport(tampered, "")
	assert.ErrorIs(t, err, signer.ErrBadSignature)
}

func TestVerifyChain(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateCase(context.Background(), sampleCase("EXP-2024-008"))
	require.NoError(t, err)
	res, err := f.svc.Verify()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 2, res.Length)
}

func TestEachAcceptedActionIsAuditedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateCase(ctx, sampleCase("EXP-2024-050"))
	require.NoError(t, err)
	ref, err := f.svc.ScheduleHearing(ctx, "EXP-2024-050", ScheduleHearingRequest{Type: "inicial", Date: "2024-06-01", Location: "Sala 2"})
	require.NoError(t, err)

	var accepted []audit.AuditEvent
	for _, e := range f.audit.Events() {
		if e.EventType == audit.EventSubmissionAccepted {
			accepted = append(accepted, e)
		}
	}
	require.Len(t, accepted, 2)
	assert.Equal(t, string(block.ActionHearingScheduled), accepted[1].Metadata["action"])
	assert.Equal(t, ref.Hash, accepted[1].Metadata["block_hash"])
}
