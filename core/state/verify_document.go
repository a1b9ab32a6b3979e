package state

import (
	"fmt"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/types/ids"
)

// DocumentVerification is the outcome of checking candidate content against
// the hashes filed for a case. A mismatch is a result, not an error.
type DocumentVerification struct {
	CaseID      string          `json:"case_id"`
	Verified    bool            `json:"verified"`
	ContentHash string          `json:"content_hash"`
	Document    *DocumentRecord `json:"document,omitempty"`
}

// VerifyDocument hashes content and looks for a filed document of caseID
// with the same content_hash.
func VerifyDocument(st *State, caseID, content string) (DocumentVerification, error) {
	rec, ok := st.cases[caseID]
	if !ok {
		return DocumentVerification{}, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	res := DocumentVerification{
		CaseID:      caseID,
		ContentHash: ids.HashHex([]byte(content)),
	}
	for i := range rec.Documents {
		if rec.Documents[i].ContentHash == res.ContentHash {
			doc := rec.Documents[i]
			res.Verified = true
			res.Document = &doc
			break
		}
	}
	return res, nil
}
