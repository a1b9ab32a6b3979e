package mempool

import (
	"sort"
	"sync"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
)

// RejectedTx is a submission that never reached the chain.
type RejectedTx struct {
	TxID       string            `json:"tx_id"`
	Tx         block.Transaction `json:"transaction"`
	RejectedAt time.Time         `json:"rejected_at"`
	Reason     string            `json:"reason"` // e.g. "invalid", "abandoned"
	LastError  string            `json:"last_error,omitempty"`
}

// RejectedTxPool is a bounded, thread-safe archive of rejected submissions.
// The oldest entry is dropped when it is full.
type RejectedTxPool struct {
	pool  map[string]RejectedTx
	order []string
	max   int
	lock  sync.RWMutex
}

func NewRejectedTxPool(max int) *RejectedTxPool {
	return &RejectedTxPool{
		pool: make(map[string]RejectedTx),
		max:  max,
	}
}

// Add archives a rejected submission.
func (e *RejectedTxPool) Add(tx RejectedTx) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, ok := e.pool[tx.TxID]; !ok {
		e.order = append(e.order, tx.TxID)
	}
	e.pool[tx.TxID] = tx
	for len(e.order) > e.max {
		delete(e.pool, e.order[0])
		e.order = e.order[1:]
	}
}

// Get retrieves a rejected submission by TxID.
func (e *RejectedTxPool) Get(txID string) (RejectedTx, bool) {
	e.lock.RLock()
	defer e.lock.RUnlock()
	tx, ok := e.pool[txID]
	return tx, ok
}

// List returns all archived submissions, oldest first.
func (e *RejectedTxPool) List() []RejectedTx {
	e.lock.RLock()
	defer e.lock.RUnlock()
	txs := make([]RejectedTx, 0, len(e.pool))
	for _, tx := range e.pool {
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].RejectedAt.Before(txs[j].RejectedAt) })
	return txs
}
