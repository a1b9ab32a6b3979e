package mempool

import (
	"context"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
)

// Outcome is delivered to the submitter once the ledger worker is done
// with a submission.
type Outcome struct {
	Index uint64
	Hash  string
	Err   error
}

// Submission is a transaction waiting for its turn on the ledger worker.
type Submission struct {
	Tx         block.Transaction
	ReceivedAt time.Time

	ctx  context.Context
	done chan Outcome
}

// NewSubmission wraps tx. ctx is the caller's context; a submission whose
// caller has gone away is dropped instead of mined.
func NewSubmission(ctx context.Context, tx block.Transaction) *Submission {
	return &Submission{
		Tx:         tx,
		ReceivedAt: time.Now().UTC(),
		ctx:        ctx,
		done:       make(chan Outcome, 1),
	}
}

// Context returns the submitter's context.
func (s *Submission) Context() context.Context { return s.ctx }

// Resolve hands the outcome to the waiting submitter. Only the first call
// has an effect.
func (s *Submission) Resolve(o Outcome) {
	select {
	case s.done <- o:
	default:
	}
}

// Wait blocks until the submission is resolved or ctx ends.
func (s *Submission) Wait(ctx context.Context) (Outcome, error) {
	select {
	case o := <-s.done:
		return o, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
