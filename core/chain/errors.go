package chain

import (
	"errors"
	"fmt"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/mempool"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/state"
)

var (
	// ErrInvalidTransaction is matched by every *InvalidTransactionError.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrStaleTip means the sealed block no longer extends the tip.
	ErrStaleTip = errors.New("stale tip")
	// ErrChainCorrupted means verification failed and appends are refused.
	ErrChainCorrupted = errors.New("chain corrupted")
	// ErrInvalidBlock is returned by Append for a block that fails its seal
	// or shape checks.
	ErrInvalidBlock = errors.New("invalid block")
	// ErrBusy means the submission pool is full.
	ErrBusy = errors.New("ledger busy")
)

// Rejection codes carried by InvalidTransactionError.
const (
	CodeMalformed = "malformed"
	CodeNotFound  = "not_found"
	CodeDuplicate = "duplicate"
	CodeClosed    = "case_closed"
)

// InvalidTransactionError explains why a submission was refused. It is
// reported before any chain mutation.
type InvalidTransactionError struct {
	Code   string
	CaseID string
	Err    error
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid transaction for %s: %v", e.CaseID, e.Err)
}

func (e *InvalidTransactionError) Unwrap() error { return e.Err }

func (e *InvalidTransactionError) Is(target error) bool {
	return target == ErrInvalidTransaction
}

// IsInvalidTransaction returns the typed error if err carries one.
func IsInvalidTransaction(err error) (*InvalidTransactionError, bool) {
	var ite *InvalidTransactionError
	if errors.As(err, &ite) {
		return ite, true
	}
	return nil, false
}

func invalidTx(caseID string, err error) error {
	code := CodeMalformed
	switch {
	case errors.Is(err, state.ErrCaseNotFound):
		code = CodeNotFound
	case errors.Is(err, state.ErrCaseExists), errors.Is(err, mempool.ErrDuplicate):
		code = CodeDuplicate
	case errors.Is(err, state.ErrCaseClosed):
		code = CodeClosed
	case errors.Is(err, block.ErrMalformed), errors.Is(err, state.ErrBadGenesis):
		code = CodeMalformed
	}
	return &InvalidTransactionError{Code: code, CaseID: caseID, Err: err}
}
