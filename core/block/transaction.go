package block

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/types/ids"
)

// Action is the kind of case event a transaction records.
type Action string

const (
	ActionCaseCreated      Action = "case_created"
	ActionDocumentAdded    Action = "document_added"
	ActionHearingScheduled Action = "hearing_scheduled"
	ActionJudgmentIssued   Action = "judgment_issued"

	// ActionGenesis only ever appears in block 0.
	ActionGenesis Action = "genesis"
)

// CaseActions lists the actions accepted from submitters.
var CaseActions = []Action{ActionCaseCreated, ActionDocumentAdded, ActionHearingScheduled, ActionJudgmentIssued}

// Valid reports whether a is a submittable case action.
func (a Action) Valid() bool {
	for _, c := range CaseActions {
		if a == c {
			return true
		}
	}
	return false
}

// Case types recognised by the court.
const (
	CaseTypeCivil   = "civil"
	CaseTypePenal   = "penal"
	CaseTypeLaboral = "laboral"
)

// ValidCaseType reports whether t is one of the known case types.
func ValidCaseType(t string) bool {
	switch t {
	case CaseTypeCivil, CaseTypePenal, CaseTypeLaboral:
		return true
	}
	return false
}

// Parties holds the pseudonymised plaintiff and defendant.
type Parties struct {
	Plaintiff string `json:"plaintiff"`
	Defendant string `json:"defendant"`
}

// CaseFiling is the payload of case_created.
type CaseFiling struct {
	Type              string `json:"type"`
	Description       string `json:"description"`
	PlaintiffNameHash string `json:"plaintiff_name_hash,omitempty"`
	DefendantNameHash string `json:"defendant_name_hash,omitempty"`
}

// Document is the payload of document_added.
type Document struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	ContentHash string `json:"content_hash"`
	Uploader    string `json:"uploader"`
}

// NewDocument fills ContentHash from content.
func NewDocument(name, content, uploader string) *Document {
	return &Document{
		Name:        name,
		Content:     content,
		ContentHash: ids.HashHex([]byte(content)),
		Uploader:    uploader,
	}
}

// Hearing is the payload of hearing_scheduled.
type Hearing struct {
	Type     string `json:"type"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// Judgment is the payload of judgment_issued.
type Judgment struct {
	Ruling  string `json:"ruling"`
	Verdict string `json:"verdict"`
	Details string `json:"details"`
}

// GenesisMarker is the fixed payload of the genesis transaction. Difficulty
// is the proof-of-work target for every later block.
type GenesisMarker struct {
	Description string `json:"description"`
	Difficulty  int    `json:"difficulty"`
}

// Payload carries exactly one action-specific body.
type Payload struct {
	Case     *CaseFiling    `json:"case,omitempty"`
	Document *Document      `json:"document,omitempty"`
	Hearing  *Hearing       `json:"hearing,omitempty"`
	Judgment *Judgment      `json:"judgment,omitempty"`
	Genesis  *GenesisMarker `json:"genesis,omitempty"`
}

func (p Payload) count() int {
	n := 0
	if p.Case != nil {
		n++
	}
	if p.Document != nil {
		n++
	}
	if p.Hearing != nil {
		n++
	}
	if p.Judgment != nil {
		n++
	}
	if p.Genesis != nil {
		n++
	}
	return n
}

// Transaction is one immutable case event.
type Transaction struct {
	TxID      string    `json:"tx_id"`
	Action    Action    `json:"action"`
	CaseID    string    `json:"case_id"`
	Parties   *Parties  `json:"parties,omitempty"`
	Judge     string    `json:"judge,omitempty"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrMalformed is returned by CheckShape.
var ErrMalformed = errors.New("malformed transaction")

// CheckShape verifies that the payload matches the action. It does not look
// at ledger state.
func (tx *Transaction) CheckShape() error {
	if strings.TrimSpace(tx.CaseID) == "" {
		return fmt.Errorf("%w: case_id is required", ErrMalformed)
	}
	if tx.Payload.count() != 1 {
		return fmt.Errorf("%w: payload must carry exactly one body", ErrMalformed)
	}
	switch tx.Action {
	case ActionCaseCreated:
		if tx.Payload.Case == nil {
			return fmt.Errorf("%w: case_created needs a case payload", ErrMalformed)
		}
		if !ValidCaseType(tx.Payload.Case.Type) {
			return fmt.Errorf("%w: unknown case type %q", ErrMalformed, tx.Payload.Case.Type)
		}
		if tx.Parties == nil || tx.Parties.Plaintiff == "" || tx.Parties.Defendant == "" {
			return fmt.Errorf("%w: case_created needs both parties", ErrMalformed)
		}
	case ActionDocumentAdded:
		d := tx.Payload.Document
		if d == nil {
			return fmt.Errorf("%w: document_added needs a document payload", ErrMalformed)
		}
		if d.Name == "" {
			return fmt.Errorf("%w: document name is required", ErrMalformed)
		}
		if d.ContentHash != ids.HashHex([]byte(d.Content)) {
			return fmt.Errorf("%w: content_hash does not match content", ErrMalformed)
		}
	case ActionHearingScheduled:
		h := tx.Payload.Hearing
		if h == nil {
			return fmt.Errorf("%w: hearing_scheduled needs a hearing payload", ErrMalformed)
		}
		if h.Date == "" {
			return fmt.Errorf("%w: hearing date is required", ErrMalformed)
		}
	case ActionJudgmentIssued:
		j := tx.Payload.Judgment
		if j == nil {
			return fmt.Errorf("%w: judgment_issued needs a judgment payload", ErrMalformed)
		}
		if j.Ruling == "" {
			return fmt.Errorf("%w: ruling is required", ErrMalformed)
		}
	case ActionGenesis:
		if tx.Payload.Genesis == nil {
			return fmt.Errorf("%w: genesis needs a marker payload", ErrMalformed)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrMalformed, tx.Action)
	}
	return nil
}
