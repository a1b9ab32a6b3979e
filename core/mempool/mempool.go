package mempool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
)

var (
	ErrDuplicate = errors.New("duplicate transaction")
	ErrPoolFull  = errors.New("submission pool is full")
	ErrClosed    = errors.New("submission pool is closed")
)

// Mempool queues submissions for the single ledger worker in FIFO order.
// It never evicts: when full, new submissions are refused.
type Mempool struct {
	mu           sync.Mutex
	txs          map[string]*Submission // TxID -> Submission
	order        []string               // FIFO order
	maxTxs       int                    // Max pending submissions
	ready        chan struct{}          // signalled when order grows
	closed       bool
	RejectedPool *RejectedTxPool // Archive of refused or abandoned submissions
}

// NewMempool creates a new mempool with a maximum size
func NewMempool(maxTxs int) *Mempool {
	if maxTxs <= 0 {
		maxTxs = 1
	}
	return &Mempool{
		txs:          make(map[string]*Submission),
		order:        make([]string, 0),
		maxTxs:       maxTxs,
		ready:        make(chan struct{}, 1),
		RejectedPool: NewRejectedTxPool(256),
	}
}

// AddTx enqueues a submission.
func (mp *Mempool) AddTx(sub *Submission) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.closed {
		return ErrClosed
	}
	if _, exists := mp.txs[sub.Tx.TxID]; exists {
		return ErrDuplicate
	}
	if len(mp.txs) >= mp.maxTxs {
		return ErrPoolFull
	}
	mp.txs[sub.Tx.TxID] = sub
	mp.order = append(mp.order, sub.Tx.TxID)
	select {
	case mp.ready <- struct{}{}:
	default:
	}
	return nil
}

// Next blocks until a submission is available and removes it from the pool.
func (mp *Mempool) Next(ctx context.Context) (*Submission, error) {
	for {
		mp.mu.Lock()
		if len(mp.order) > 0 {
			id := mp.order[0]
			mp.order = mp.order[1:]
			sub := mp.txs[id]
			delete(mp.txs, id)
			more := len(mp.order) > 0
			mp.mu.Unlock()
			if more {
				select {
				case mp.ready <- struct{}{}:
				default:
				}
			}
			return sub, nil
		}
		closed := mp.closed
		mp.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-mp.ready:
		}
	}
}

// RemoveTx removes a transaction by TxID
func (mp *Mempool) RemoveTx(txID string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if _, exists := mp.txs[txID]; exists {
		delete(mp.txs, txID)
		for i, id := range mp.order {
			if id == txID {
				mp.order = append(mp.order[:i], mp.order[i+1:]...)
				break
			}
		}
	}
}

// GetTx returns a pending transaction by TxID (and bool for existence)
func (mp *Mempool) GetTx(txID string) (block.Transaction, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	sub, ok := mp.txs[txID]
	if !ok {
		return block.Transaction{}, false
	}
	return sub.Tx, true
}

// GetAllTxs returns all pending transactions in queue order
func (mp *Mempool) GetAllTxs() []block.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	txs := make([]block.Transaction, 0, len(mp.order))
	for _, id := range mp.order {
		txs = append(txs, mp.txs[id].Tx)
	}
	return txs
}

// Len is the number of pending submissions.
func (mp *Mempool) Len() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.order)
}

// PurgeAbandoned drops submissions whose caller context has ended and
// archives them in the RejectedPool. Returns the number dropped.
func (mp *Mempool) PurgeAbandoned() int {
	mp.mu.Lock()
	var dropped []*Submission
	newOrder := make([]string, 0, len(mp.order))
	for _, id := range mp.order {
		sub := mp.txs[id]
		if sub.ctx != nil && sub.ctx.Err() != nil {
			dropped = append(dropped, sub)
			delete(mp.txs, id)
			continue
		}
		newOrder = append(newOrder, id)
	}
	mp.order = newOrder
	mp.mu.Unlock()

	for _, sub := range dropped {
		mp.RejectedPool.Add(RejectedTx{
			TxID:       sub.Tx.TxID,
			Tx:         sub.Tx,
			RejectedAt: time.Now().UTC(),
			Reason:     "abandoned",
			LastError:  sub.ctx.Err().Error(),
		})
		sub.Resolve(Outcome{Err: sub.ctx.Err()})
	}
	return len(dropped)
}

// Close refuses further submissions and fails everything still pending.
func (mp *Mempool) Close() {
	mp.mu.Lock()
	if mp.closed {
		mp.mu.Unlock()
		return
	}
	mp.closed = true
	pending := make([]*Submission, 0, len(mp.order))
	for _, id := range mp.order {
		pending = append(pending, mp.txs[id])
	}
	mp.txs = map[string]*Submission{}
	mp.order = nil
	mp.mu.Unlock()

	for _, sub := range pending {
		sub.Resolve(Outcome{Err: ErrClosed})
	}
	select {
	case mp.ready <- struct{}{}:
	default:
	}
}
