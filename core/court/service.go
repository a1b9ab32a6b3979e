// Package court is the case-management surface over the ledger: it turns
// court requests into transactions and answers queries from the projection.
package court

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/chain"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/integrity"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/signer"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/state"
)

// Service is safe for concurrent use.
type Service struct {
	chain  *chain.Chain
	judges *JudgeDirectory
	key    *signer.NodeKey
	audit  audit.AuditLogger
}

func NewService(c *chain.Chain, judges *JudgeDirectory, key *signer.NodeKey, l audit.AuditLogger) *Service {
	return &Service{chain: c, judges: judges, key: key, audit: l}
}

// Chain exposes the underlying ledger for read-only endpoints.
func (s *Service) Chain() *chain.Chain { return s.chain }

type CreateCaseRequest struct {
	CaseID        string `json:"case_id"`
	CaseType      string `json:"case_type"`
	PlaintiffName string `json:"plaintiff_name"`
	DefendantName string `json:"defendant_name"`
	JudgeID       string `json:"judge_id"`
	Description   string `json:"description"`
}

type AddDocumentRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Uploader string `json:"uploader"`
}

type ScheduleHearingRequest struct {
	Type     string `json:"type"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

type IssueJudgmentRequest struct {
	Ruling  string `json:"ruling"`
	Verdict string `json:"verdict"`
	Details string `json:"details"`
}

// CreateCase records case_created. Party names are replaced by aliases
// before anything reaches the ledger.
func (s *Service) CreateCase(ctx context.Context, req CreateCaseRequest) (chain.BlockRef, error) {
	tx := block.Transaction{
		Action: block.ActionCaseCreated,
		CaseID: strings.TrimSpace(req.CaseID),
		Parties: &block.Parties{
			Plaintiff: PlaintiffAlias(req.PlaintiffName),
			Defendant: DefendantAlias(req.DefendantName),
		},
		Judge: req.JudgeID,
		Payload: block.Payload{Case: &block.CaseFiling{
			Type:              req.CaseType,
			Description:       req.Description,
			PlaintiffNameHash: PartyHash(req.PlaintiffName, rolePlaintiff),
			DefendantNameHash: PartyHash(req.DefendantName, roleDefendant),
		}},
	}
	return s.submit(ctx, tx)
}

// AddDocument files a document against an open case.
func (s *Service) AddDocument(ctx context.Context, caseID string, req AddDocumentRequest) (chain.BlockRef, error) {
	return s.submit(ctx, block.Transaction{
		Action:  block.ActionDocumentAdded,
		CaseID:  caseID,
		Payload: block.Payload{Document: block.NewDocument(req.Name, req.Content, req.Uploader)},
	})
}

func (s *Service) ScheduleHearing(ctx context.Context, caseID string, req ScheduleHearingRequest) (chain.BlockRef, error) {
	return s.submit(ctx, block.Transaction{
		Action:  block.ActionHearingScheduled,
		CaseID:  caseID,
		Payload: block.Payload{Hearing: &block.Hearing{Type: req.Type, Date: req.Date, Location: req.Location}},
	})
}

// IssueJudgment closes the case; later mutations are refused.
func (s *Service) IssueJudgment(ctx context.Context, caseID string, req IssueJudgmentRequest) (chain.BlockRef, error) {
	return s.submit(ctx, block.Transaction{
		Action:  block.ActionJudgmentIssued,
		CaseID:  caseID,
		Payload: block.Payload{Judgment: &block.Judgment{Ruling: req.Ruling, Verdict: req.Verdict, Details: req.Details}},
	})
}

// submit carries the case's judge over to follow-up events so every
// transaction names the judge in charge.
func (s *Service) submit(ctx context.Context, tx block.Transaction) (chain.BlockRef, error) {
	if tx.Judge == "" {
		if rec, ok := s.chain.Snapshot().State.Case(tx.CaseID); ok {
			tx.Judge = rec.Judge
		}
	}
	return s.chain.Submit(ctx, tx)
}

// GetCase returns the projected case, history included.
func (s *Service) GetCase(caseID string) (state.CaseRecord, error) {
	rec, ok := s.chain.Snapshot().State.Case(caseID)
	if !ok {
		return state.CaseRecord{}, fmt.Errorf("%w: %s", state.ErrCaseNotFound, caseID)
	}
	return rec, nil
}

// ListCases returns every case keyed by id.
func (s *Service) ListCases() map[string]state.CaseRecord {
	cases := s.chain.Snapshot().State.Cases()
	out := make(map[string]state.CaseRecord, len(cases))
	for _, c := range cases {
		out[c.CaseID] = c
	}
	return out
}

// Statistics merges chain counters with the case view.
type Statistics struct {
	TotalCases          int            `json:"total_cases"`
	CasesByStatus       map[string]int `json:"cases_by_status"`
	TotalBlocks         int            `json:"total_blocks"`
	TotalTransactions   int            `json:"total_transactions"`
	Difficulty          int            `json:"difficulty"`
	UniqueCases         int            `json:"unique_cases"`
	CaseTypes           map[string]int `json:"case_types"`
	PendingTransactions int            `json:"pending_transactions"`
	TotalJudges         int            `json:"total_judges"`
}

// Statistics is computed from a single snapshot.
func (s *Service) Statistics() (Statistics, error) {
	snap := s.chain.Snapshot()
	seen := map[string]struct{}{}
	for _, b := range snap.Blocks() {
		for _, tx := range b.Transactions {
			if tx.Action != block.ActionGenesis {
				seen[tx.CaseID] = struct{}{}
			}
		}
	}
	judges, err := s.judges.List()
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		TotalCases:          snap.State.TotalCases(),
		CasesByStatus:       snap.State.StatusCounts(),
		TotalBlocks:         snap.Length(),
		TotalTransactions:   snap.State.TotalTransactions(),
		Difficulty:          s.chain.Difficulty(),
		UniqueCases:         len(seen),
		CaseTypes:           snap.State.TypeCounts(),
		PendingTransactions: len(s.chain.Pending()),
		TotalJudges:         len(judges),
	}, nil
}

// Verify re-validates the persisted chain.
func (s *Service) Verify() (integrity.Result, error) {
	return s.chain.Verify()
}

// VerifyDocument reports whether content matches a document filed for the
// case.
func (s *Service) VerifyDocument(caseID, content string) (state.DocumentVerification, error) {
	res, err := state.VerifyDocument(s.chain.Snapshot().State, caseID, content)
	if err != nil {
		audit.Record(s.audit, audit.EventDocumentCheck, caseID, "failure", err.Error(), nil)
		return res, err
	}
	result := "success"
	if !res.Verified {
		result = "failure"
	}
	audit.Record(s.audit, audit.EventDocumentCheck, caseID, result, "", map[string]string{
		"content_hash": res.ContentHash,
	})
	return res, nil
}

// RegisterJudge adds a judge to the directory.
func (s *Service) RegisterJudge(name, specialty string) (Judge, error) {
	j, created, err := s.judges.Register(name, specialty)
	if err != nil {
		audit.Record(s.audit, audit.EventJudgeRegistered, name, "failure", err.Error(), nil)
		return Judge{}, err
	}
	if created {
		audit.Record(s.audit, audit.EventJudgeRegistered, j.JudgeID, "success", "", map[string]string{
			"specialty": specialty,
		})
	}
	return j, nil
}

func (s *Service) ListJudges() ([]Judge, error) {
	return s.judges.List()
}

// IsNotFound reports whether err means the case does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, state.ErrCaseNotFound)
}
