// Package chain owns the append-only ledger: one writer goroutine seals and
// appends, readers work on immutable snapshots.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/genesis"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/integrity"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/mempool"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/miner"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/notify"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/state"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

// Store is the durable side of the chain.
type Store interface {
	LoadChain() ([]block.Block, error)
	AppendBlock(b block.Block) error
}

// Publisher receives every appended block.
type Publisher interface {
	Publish(b block.Block)
}

// Config for Open. Zero values fall back to defaults.
type Config struct {
	Difficulty  int                    // used only when genesis is created
	Genesis     *genesis.GenesisConfig // optional pinned genesis
	PoolSize    int
	MaxRetries  int                  // StaleTip re-seals per submission
	Checkpoints storage.StateBackend // optional projection cache
	Audit       audit.AuditLogger
	Publisher   Publisher
	Now         func() time.Time
}

// BlockRef identifies the block a submission landed in.
type BlockRef struct {
	Index uint64 `json:"block_index"`
	Hash  string `json:"block_hash"`
	TxID  string `json:"tx_id"`
}

// AppendResult describes a committed block.
type AppendResult struct {
	Index  uint64 `json:"index"`
	Hash   string `json:"hash"`
	Length int    `json:"length"`
}

// Corruption records the first failed verification.
type Corruption struct {
	Index      int       `json:"index"`
	Reason     string    `json:"reason"`
	DetectedAt time.Time `json:"detected_at"`
}

// Snapshot is a consistent view of the chain and its projection. It is
// never modified after it is published.
type Snapshot struct {
	blocks []block.Block
	State  *state.State
}

// Blocks returns the snapshot's blocks. The slice must not be modified.
func (s *Snapshot) Blocks() []block.Block {
	return s.blocks[:len(s.blocks):len(s.blocks)]
}

func (s *Snapshot) Length() int { return len(s.blocks) }

func (s *Snapshot) Tip() block.Block { return s.blocks[len(s.blocks)-1] }

// Chain is the single authoritative ledger.
type Chain struct {
	store       Store
	pool        *mempool.Mempool
	difficulty  int
	maxRetries  int
	now         func() time.Time
	audit       audit.AuditLogger
	publisher   Publisher
	checkpoints storage.StateBackend

	mu      sync.Mutex // held only for the append commit
	snap    atomic.Pointer[Snapshot]
	corrupt atomic.Pointer[Corruption]
}

// Open loads the chain from store, creating genesis on first start, and
// re-validates it. A chain that fails validation still opens so it can be
// inspected, but refuses appends.
func Open(store Store, cfg Config) (*Chain, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 256
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Difficulty < 0 || cfg.Difficulty > genesis.MaxDifficulty {
		return nil, fmt.Errorf("difficulty must be between 0 and %d, got %d", genesis.MaxDifficulty, cfg.Difficulty)
	}
	blocks, err := store.LoadChain()
	if err != nil {
		return nil, fmt.Errorf("load chain: %w", err)
	}
	if len(blocks) == 0 {
		gcfg := cfg.Genesis
		if gcfg == nil {
			gcfg = &genesis.GenesisConfig{Difficulty: cfg.Difficulty, GenesisTime: cfg.Now()}
		}
		g, err := genesis.CreateGenesisBlock(gcfg)
		if err != nil {
			return nil, err
		}
		if err := store.AppendBlock(g); err != nil {
			return nil, fmt.Errorf("persist genesis: %w", err)
		}
		log.Printf("[CHAIN] created genesis block %s difficulty=%d", g.Hash, gcfg.Difficulty)
		blocks = []block.Block{g}
	}

	c := &Chain{
		store:       store,
		pool:        mempool.NewMempool(cfg.PoolSize),
		difficulty:  cfg.Difficulty,
		maxRetries:  cfg.MaxRetries,
		now:         cfg.Now,
		audit:       cfg.Audit,
		publisher:   cfg.Publisher,
		checkpoints: cfg.Checkpoints,
	}
	if d, err := genesis.Difficulty(blocks[0]); err == nil {
		if d != cfg.Difficulty {
			log.Printf("[CHAIN] configured difficulty %d ignored, genesis records %d", cfg.Difficulty, d)
		}
		c.difficulty = d
	}

	trusted := blocks
	res := integrity.Verify(blocks)
	if !res.Valid {
		idx := *res.FirstInvalidIndex
		c.markCorrupted(idx, res.Reason)
		trusted = blocks[:idx]
	}
	st, bad, err := c.restore(trusted)
	if err != nil {
		c.markCorrupted(bad, err.Error())
	}
	c.snap.Store(&Snapshot{blocks: blocks, State: st})
	log.Printf("[CHAIN] loaded %d blocks, %d cases, tip %s", len(blocks), st.TotalCases(), blocks[len(blocks)-1].Hash)
	return c, nil
}

// restore folds blocks from genesis. A saved checkpoint is only compared
// against the fold at its height and is replaced when they disagree.
// On failure it returns the state before the offending block and its index.
func (c *Chain) restore(blocks []block.Block) (*state.State, int, error) {
	var cp *state.State
	if c.checkpoints != nil {
		loaded, err := state.LoadCheckpoint(c.checkpoints)
		if err != nil {
			log.Printf("[CHAIN] ignoring projection checkpoint: %v", err)
		}
		cp = loaded
	}
	st := state.Empty()
	for i := range blocks {
		next, err := state.ApplyBlock(st, blocks[i])
		if err != nil {
			return st, i, err
		}
		st = next
		if cp != nil && cp.Height() == st.Height() {
			c.crossCheck(cp, st)
			cp = nil
		}
	}
	if cp != nil && cp.Height() > 0 {
		log.Printf("[CHAIN] projection checkpoint at height %d is beyond the chain, discarded", cp.Height())
		c.saveCheckpoint(st)
	}
	return st, -1, nil
}

func (c *Chain) crossCheck(cp, folded *state.State) {
	if cp.Equal(folded) {
		return
	}
	log.Printf("[CHAIN] projection checkpoint at height %d disagrees with the chain, discarded", cp.Height())
	c.saveCheckpoint(folded)
}

func (c *Chain) saveCheckpoint(st *state.State) {
	if c.corrupt.Load() != nil {
		return
	}
	if err := state.SaveCheckpoint(c.checkpoints, st); err != nil {
		log.Printf("[CHAIN] %v", err)
	}
}

// Run is the ledger worker. It takes submissions one at a time, seals each
// on the tip visible at the start of its turn and appends it. Run returns
// when ctx ends (cancelling any seal in progress) or the pool is closed.
func (c *Chain) Run(ctx context.Context) error {
	log.Printf("[CHAIN] ledger worker started at height %d", c.Length())
	for {
		sub, err := c.pool.Next(ctx)
		if err != nil {
			if errors.Is(err, mempool.ErrClosed) {
				return nil
			}
			return err
		}
		c.process(ctx, sub)
	}
}

func (c *Chain) process(ctx context.Context, sub *mempool.Submission) {
	tx := sub.Tx
	if err := sub.Context().Err(); err != nil {
		c.reject(tx, "abandoned", err)
		sub.Resolve(mempool.Outcome{Err: err})
		return
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		res, err := c.sealAndAppend(ctx, tx)
		if errors.Is(err, ErrStaleTip) {
			lastErr = err
			log.Printf("[CHAIN] tx %s lost the tip, re-sealing (attempt %d)", tx.TxID, attempt+1)
			continue
		}
		if err != nil {
			c.reject(tx, "invalid", err)
			sub.Resolve(mempool.Outcome{Err: err})
			return
		}
		audit.Record(c.audit, audit.EventSubmissionAccepted, tx.CaseID, "success", "", map[string]string{
			"action":      string(tx.Action),
			"tx_id":       tx.TxID,
			"block_index": strconv.FormatUint(res.Index, 10),
			"block_hash":  res.Hash,
		})
		sub.Resolve(mempool.Outcome{Index: res.Index, Hash: res.Hash})
		return
	}
	err := fmt.Errorf("gave up after %d attempts: %w", c.maxRetries+1, lastErr)
	c.reject(tx, "stale", err)
	sub.Resolve(mempool.Outcome{Err: err})
}

func (c *Chain) sealAndAppend(ctx context.Context, tx block.Transaction) (AppendResult, error) {
	if cr := c.corrupt.Load(); cr != nil {
		return AppendResult{}, corruptedErr(cr)
	}
	snap := c.snap.Load()
	if err := snap.State.Check(tx); err != nil {
		return AppendResult{}, invalidTx(tx.CaseID, err)
	}
	tip := snap.Tip()
	ts := c.now().UTC()
	if ts.Before(tip.Timestamp) {
		ts = tip.Timestamp
	}
	tx.Timestamp = ts
	cand := block.Block{
		Index:        tip.Index + 1,
		Timestamp:    ts,
		Transactions: []block.Transaction{tx},
		PreviousHash: tip.Hash,
	}
	sealed, err := miner.Seal(ctx, cand, c.difficulty)
	if err != nil {
		return AppendResult{}, fmt.Errorf("seal block %d: %w", cand.Index, err)
	}
	return c.Append(sealed)
}

// Append commits a sealed block if it still extends the tip. It is the only
// place the chain is mutated.
func (c *Chain) Append(sealed block.Block) (AppendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cr := c.corrupt.Load(); cr != nil {
		return AppendResult{}, corruptedErr(cr)
	}
	snap := c.snap.Load()
	tip := snap.Tip()
	if sealed.PreviousHash != tip.Hash || sealed.Index != tip.Index+1 {
		return AppendResult{}, fmt.Errorf("%w: block %d links %s, tip is %d %s",
			ErrStaleTip, sealed.Index, sealed.PreviousHash, tip.Index, tip.Hash)
	}
	if len(sealed.Transactions) == 0 {
		return AppendResult{}, fmt.Errorf("%w: no transactions", ErrInvalidBlock)
	}
	if sealed.Timestamp.Before(tip.Timestamp) {
		return AppendResult{}, fmt.Errorf("%w: timestamp precedes tip", ErrInvalidBlock)
	}
	if err := miner.Validate(sealed, c.difficulty); err != nil {
		return AppendResult{}, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	for _, tx := range sealed.Transactions {
		if err := tx.CheckShape(); err != nil {
			return AppendResult{}, invalidTx(tx.CaseID, err)
		}
	}
	next, err := state.ApplyBlock(snap.State, sealed)
	if err != nil {
		return AppendResult{}, invalidTx(sealed.Transactions[0].CaseID, err)
	}
	stored := sealed.Clone()
	if err := c.store.AppendBlock(stored); err != nil {
		return AppendResult{}, fmt.Errorf("persist block %d: %w", stored.Index, err)
	}
	// Older snapshots only see their own length, so appending into spare
	// capacity is invisible to them.
	blocks := append(snap.blocks, stored)
	c.snap.Store(&Snapshot{blocks: blocks, State: next})
	log.Printf("[CHAIN] appended block %d hash=%s case=%s action=%s",
		stored.Index, stored.Hash, stored.Transactions[0].CaseID, stored.Transactions[0].Action)
	if c.publisher != nil {
		c.publisher.Publish(stored.Clone())
	}
	return AppendResult{Index: stored.Index, Hash: stored.Hash, Length: len(blocks)}, nil
}

// Submit validates tx against the current projection, queues it for the
// ledger worker and waits until it is sealed into a block. tx.TxID is
// assigned if empty; tx.Timestamp is always set by the ledger.
func (c *Chain) Submit(ctx context.Context, tx block.Transaction) (BlockRef, error) {
	if tx.Action == block.ActionGenesis {
		return BlockRef{}, invalidTx(tx.CaseID, state.ErrBadGenesis)
	}
	if tx.TxID == "" {
		tx.TxID = uuid.NewString()
	}
	if err := tx.CheckShape(); err != nil {
		c.reject(tx, "invalid", err)
		return BlockRef{}, invalidTx(tx.CaseID, err)
	}
	if cr := c.corrupt.Load(); cr != nil {
		return BlockRef{}, corruptedErr(cr)
	}
	if err := c.snap.Load().State.Check(tx); err != nil {
		c.reject(tx, "invalid", err)
		return BlockRef{}, invalidTx(tx.CaseID, err)
	}
	sub := mempool.NewSubmission(ctx, tx)
	if err := c.pool.AddTx(sub); err != nil {
		switch {
		case errors.Is(err, mempool.ErrPoolFull):
			return BlockRef{}, fmt.Errorf("%w: %v", ErrBusy, err)
		case errors.Is(err, mempool.ErrDuplicate):
			return BlockRef{}, invalidTx(tx.CaseID, err)
		}
		return BlockRef{}, err
	}
	out, err := sub.Wait(ctx)
	if err != nil {
		c.pool.RemoveTx(tx.TxID)
		return BlockRef{}, err
	}
	if out.Err != nil {
		return BlockRef{}, out.Err
	}
	return BlockRef{Index: out.Index, Hash: out.Hash, TxID: tx.TxID}, nil
}

func (c *Chain) reject(tx block.Transaction, reason string, err error) {
	c.pool.RejectedPool.Add(mempool.RejectedTx{
		TxID:       tx.TxID,
		Tx:         tx,
		RejectedAt: time.Now().UTC(),
		Reason:     reason,
		LastError:  err.Error(),
	})
	audit.Record(c.audit, audit.EventSubmissionRejected, tx.CaseID, "failure", err.Error(), map[string]string{
		"action": string(tx.Action),
		"tx_id":  tx.TxID,
		"reason": reason,
	})
}

// Snapshot returns the current immutable view.
func (c *Chain) Snapshot() *Snapshot { return c.snap.Load() }

// Tip returns the last block.
func (c *Chain) Tip() block.Block { return c.snap.Load().Tip().Clone() }

// Length returns the number of blocks, genesis included.
func (c *Chain) Length() int { return c.snap.Load().Length() }

// GetBlock returns the block at index i.
func (c *Chain) GetBlock(i uint64) (block.Block, bool) {
	snap := c.snap.Load()
	if i >= uint64(snap.Length()) {
		return block.Block{}, false
	}
	return snap.blocks[i].Clone(), true
}

// Difficulty is the proof-of-work target recorded in genesis.
func (c *Chain) Difficulty() int { return c.difficulty }

// Pending lists queued submissions.
func (c *Chain) Pending() []block.Transaction { return c.pool.GetAllTxs() }

// Rejected lists recently refused submissions.
func (c *Chain) Rejected() []mempool.RejectedTx { return c.pool.RejectedPool.List() }

// PurgeAbandoned drops queued submissions whose callers have gone away.
func (c *Chain) PurgeAbandoned() int { return c.pool.PurgeAbandoned() }

// Corruption returns the recorded verification failure, if any.
func (c *Chain) Corruption() *Corruption { return c.corrupt.Load() }

// Verify re-reads the persisted chain and validates it. The persisted blocks
// must also match the blocks this process has committed. A failure is
// recorded and blocks further appends.
func (c *Chain) Verify() (integrity.Result, error) {
	// Snapshot first: the store may run ahead of it, never behind.
	snap := c.snap.Load()
	blocks, err := c.store.LoadChain()
	if err != nil {
		c.markCorrupted(-1, err.Error())
		return integrity.Result{}, fmt.Errorf("%w: %v", ErrChainCorrupted, err)
	}
	res := integrity.Verify(blocks)
	if res.Valid {
		if i, ok := diverges(snap.blocks, blocks); ok {
			res = integrity.Result{
				FirstInvalidIndex: &i,
				Reason:            "persisted chain differs from committed blocks",
				Length:            len(blocks),
				Difficulty:        res.Difficulty,
			}
		}
	}
	result := "success"
	if !res.Valid {
		result = "failure"
		c.markCorrupted(*res.FirstInvalidIndex, res.Reason)
	}
	audit.Record(c.audit, audit.EventChainVerification, "chain", result, res.Reason, map[string]string{
		"length": strconv.Itoa(res.Length),
	})
	return res, nil
}

// diverges reports the first index where committed and persisted differ.
// The store may be ahead of committed only during an append.
func diverges(committed, persisted []block.Block) (int, bool) {
	for i := range committed {
		if i >= len(persisted) {
			return i, true
		}
		if committed[i].Hash != persisted[i].Hash {
			return i, true
		}
	}
	return 0, false
}

func (c *Chain) markCorrupted(index int, reason string) {
	cr := &Corruption{Index: index, Reason: reason, DetectedAt: time.Now().UTC()}
	if !c.corrupt.CompareAndSwap(nil, cr) {
		return
	}
	log.Printf("[CHAIN] ALERT integrity failure at block %d: %s; appends disabled", index, reason)
	notify.Notify(notify.Notification{
		Subject:   fmt.Sprintf("chain corrupted at block %d", index),
		Reason:    reason,
		Type:      notify.NotifyAdmin,
		Recipient: "operator",
	})
}

func corruptedErr(cr *Corruption) error {
	return fmt.Errorf("%w at block %d: %s", ErrChainCorrupted, cr.Index, cr.Reason)
}

// Close stops accepting submissions and saves the projection checkpoint.
func (c *Chain) Close() error {
	c.pool.Close()
	if c.checkpoints == nil || c.corrupt.Load() != nil {
		return nil
	}
	return state.SaveCheckpoint(c.checkpoints, c.snap.Load().State)
}
