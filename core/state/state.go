// Package state folds the ledger into the current view of every case.
package state

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
)

// CaseStatus is the lifecycle position of a case.
type CaseStatus string

const (
	StatusPresentado CaseStatus = "presentado"
	StatusEnProceso  CaseStatus = "en_proceso"
	StatusResuelto   CaseStatus = "resuelto"
)

// Statuses lists every status in lifecycle order.
var Statuses = []CaseStatus{StatusPresentado, StatusEnProceso, StatusResuelto}

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrCaseExists   = errors.New("case already exists")
	ErrCaseClosed   = errors.New("case is resolved")
	ErrOutOfOrder   = errors.New("block does not extend projected height")
	ErrBadGenesis   = errors.New("genesis marker outside block 0")
)

// LedgerEntry points at the transaction that touched a case.
type LedgerEntry struct {
	BlockIndex uint64       `json:"block_index"`
	BlockHash  string       `json:"block_hash"`
	TxID       string       `json:"tx_id"`
	Action     block.Action `json:"action"`
	Timestamp  time.Time    `json:"timestamp"`
}

type DocumentRecord struct {
	block.Document
	FiledAt    time.Time `json:"filed_at"`
	BlockIndex uint64    `json:"block_index"`
}

type HearingRecord struct {
	block.Hearing
	ScheduledAt time.Time `json:"scheduled_at"`
}

type JudgmentRecord struct {
	block.Judgment
	IssuedAt time.Time `json:"issued_at"`
}

// CaseRecord is the materialised view of one case. It is never stored on
// its own; it is always the result of replaying the chain.
type CaseRecord struct {
	CaseID      string           `json:"case_id"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Status      CaseStatus       `json:"status"`
	Parties     block.Parties    `json:"parties"`
	Judge       string           `json:"judge"`
	Documents   []DocumentRecord `json:"documents"`
	Hearings    []HearingRecord  `json:"hearings"`
	Judgment    *JudgmentRecord  `json:"judgment,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	History     []LedgerEntry    `json:"history"`
}

func (c *CaseRecord) clone() *CaseRecord {
	out := *c
	out.Documents = append([]DocumentRecord(nil), c.Documents...)
	out.Hearings = append([]HearingRecord(nil), c.Hearings...)
	out.History = append([]LedgerEntry(nil), c.History...)
	if c.Judgment != nil {
		j := *c.Judgment
		out.Judgment = &j
	}
	if out.Documents == nil {
		out.Documents = []DocumentRecord{}
	}
	if out.Hearings == nil {
		out.Hearings = []HearingRecord{}
	}
	return &out
}

// State is an immutable projection of the first Height blocks. ApplyBlock
// returns a new State and leaves the receiver untouched, so a State can be
// shared with readers without locking.
type State struct {
	cases    map[string]*CaseRecord
	height   uint64
	tipHash  string
	txCount  int
	byStatus map[CaseStatus]int
	byType   map[string]int
}

// Empty returns the projection of a chain with no blocks.
func Empty() *State {
	return &State{
		cases:    map[string]*CaseRecord{},
		byStatus: map[CaseStatus]int{},
		byType:   map[string]int{},
	}
}

// Height is the number of blocks folded into the state.
func (s *State) Height() uint64 { return s.height }

// TipHash is the hash of the last folded block.
func (s *State) TipHash() string { return s.tipHash }

// TotalTransactions counts every folded transaction, the genesis marker included.
func (s *State) TotalTransactions() int { return s.txCount }

// TotalCases counts created cases.
func (s *State) TotalCases() int { return len(s.cases) }

// Case returns a copy of one case record.
func (s *State) Case(caseID string) (CaseRecord, bool) {
	c, ok := s.cases[caseID]
	if !ok {
		return CaseRecord{}, false
	}
	return *c.clone(), true
}

// Cases returns copies of all case records ordered by creation time, then id.
func (s *State) Cases() []CaseRecord {
	out := make([]CaseRecord, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, *c.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CaseID < out[j].CaseID
	})
	return out
}

// StatusCounts always reports all three statuses.
func (s *State) StatusCounts() map[string]int {
	out := make(map[string]int, len(Statuses))
	for _, st := range Statuses {
		out[string(st)] = s.byStatus[st]
	}
	return out
}

// TypeCounts reports the number of cases per case type.
func (s *State) TypeCounts() map[string]int {
	out := make(map[string]int, len(s.byType))
	for k, v := range s.byType {
		out[k] = v
	}
	return out
}

// Check reports whether tx could be applied on top of s.
func (s *State) Check(tx block.Transaction) error {
	existing, ok := s.cases[tx.CaseID]
	switch tx.Action {
	case block.ActionGenesis:
		return ErrBadGenesis
	case block.ActionCaseCreated:
		if ok {
			return fmt.Errorf("%w: %s", ErrCaseExists, tx.CaseID)
		}
		return nil
	case block.ActionDocumentAdded, block.ActionHearingScheduled, block.ActionJudgmentIssued:
		if !ok {
			return fmt.Errorf("%w: %s", ErrCaseNotFound, tx.CaseID)
		}
		if existing.Status == StatusResuelto {
			return fmt.Errorf("%w: %s", ErrCaseClosed, tx.CaseID)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown action %q", block.ErrMalformed, tx.Action)
}

// Project folds blocks from an empty state.
func Project(blocks []block.Block) (*State, error) {
	st := Empty()
	for _, b := range blocks {
		next, err := ApplyBlock(st, b)
		if err != nil {
			return nil, err
		}
		st = next
	}
	return st, nil
}

// ApplyBlock folds one block on top of st. Transactions apply in order; a
// later transaction in the block sees the effect of an earlier one. Only the
// records of cases touched by the block are replaced.
func ApplyBlock(st *State, b block.Block) (*State, error) {
	if b.Index != st.height {
		return nil, fmt.Errorf("%w: have %d blocks, got index %d", ErrOutOfOrder, st.height, b.Index)
	}
	next := &State{
		cases:    make(map[string]*CaseRecord, len(st.cases)+len(b.Transactions)),
		height:   st.height + 1,
		tipHash:  b.Hash,
		txCount:  st.txCount,
		byStatus: make(map[CaseStatus]int, len(st.byStatus)),
		byType:   make(map[string]int, len(st.byType)),
	}
	for k, v := range st.cases {
		next.cases[k] = v
	}
	for k, v := range st.byStatus {
		next.byStatus[k] = v
	}
	for k, v := range st.byType {
		next.byType[k] = v
	}
	// records already copied for this block; safe to mutate in place
	owned := map[string]bool{}
	for _, tx := range b.Transactions {
		if tx.Action == block.ActionGenesis {
			if b.Index != 0 {
				return nil, fmt.Errorf("%w: block %d", ErrBadGenesis, b.Index)
			}
			next.txCount++
			continue
		}
		if err := next.Check(tx); err != nil {
			return nil, fmt.Errorf("block %d tx %s: %w", b.Index, tx.TxID, err)
		}
		entry := LedgerEntry{
			BlockIndex: b.Index,
			BlockHash:  b.Hash,
			TxID:       tx.TxID,
			Action:     tx.Action,
			Timestamp:  tx.Timestamp,
		}
		if tx.Action == block.ActionCaseCreated {
			rec := newCase(tx, entry)
			next.cases[tx.CaseID] = rec
			owned[tx.CaseID] = true
			next.byStatus[rec.Status]++
			next.byType[rec.Type]++
			next.txCount++
			continue
		}
		rec := next.cases[tx.CaseID]
		if !owned[tx.CaseID] {
			rec = rec.clone()
			next.cases[tx.CaseID] = rec
			owned[tx.CaseID] = true
		}
		before := rec.Status
		if err := applyEvent(rec, tx, entry); err != nil {
			return nil, fmt.Errorf("block %d tx %s: %w", b.Index, tx.TxID, err)
		}
		if rec.Status != before {
			next.byStatus[before]--
			next.byStatus[rec.Status]++
		}
		next.txCount++
	}
	return next, nil
}

func newCase(tx block.Transaction, entry LedgerEntry) *CaseRecord {
	rec := &CaseRecord{
		CaseID:    tx.CaseID,
		Status:    StatusPresentado,
		Judge:     tx.Judge,
		Documents: []DocumentRecord{},
		Hearings:  []HearingRecord{},
		CreatedAt: tx.Timestamp,
		UpdatedAt: tx.Timestamp,
		History:   []LedgerEntry{entry},
	}
	if tx.Parties != nil {
		rec.Parties = *tx.Parties
	}
	if c := tx.Payload.Case; c != nil {
		rec.Type = c.Type
		rec.Description = c.Description
	}
	return rec
}

func applyEvent(rec *CaseRecord, tx block.Transaction, entry LedgerEntry) error {
	switch tx.Action {
	case block.ActionDocumentAdded:
		if tx.Payload.Document == nil {
			return fmt.Errorf("%w: missing document", block.ErrMalformed)
		}
		rec.Documents = append(rec.Documents, DocumentRecord{
			Document:   *tx.Payload.Document,
			FiledAt:    tx.Timestamp,
			BlockIndex: entry.BlockIndex,
		})
		if rec.Status == StatusPresentado {
			rec.Status = StatusEnProceso
		}
	case block.ActionHearingScheduled:
		if tx.Payload.Hearing == nil {
			return fmt.Errorf("%w: missing hearing", block.ErrMalformed)
		}
		rec.Hearings = append(rec.Hearings, HearingRecord{
			Hearing:     *tx.Payload.Hearing,
			ScheduledAt: tx.Timestamp,
		})
		if rec.Status == StatusPresentado {
			rec.Status = StatusEnProceso
		}
	case block.ActionJudgmentIssued:
		if tx.Payload.Judgment == nil {
			return fmt.Errorf("%w: missing judgment", block.ErrMalformed)
		}
		rec.Judgment = &JudgmentRecord{Judgment: *tx.Payload.Judgment, IssuedAt: tx.Timestamp}
		rec.Status = StatusResuelto
	}
	rec.UpdatedAt = tx.Timestamp
	rec.History = append(rec.History, entry)
	return nil
}
