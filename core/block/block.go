package block

import (
	"crypto/sha256"
	"encoding/json"
	"strconv"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/types/ids"
)

// Block is one sealed link of the ledger. Hash covers every other field.
type Block struct {
	Index        uint64        `json:"index"`         // Block height (genesis = 0)
	Timestamp    time.Time     `json:"timestamp"`     // UTC seal time
	Transactions []Transaction `json:"transactions"`  // One case event, or the genesis marker
	PreviousHash string        `json:"previous_hash"` // Parent block hash, "" for genesis
	Nonce        uint64        `json:"nonce"`         // Proof-of-work counter
	Hash         string        `json:"hash"`          // Hex SHA-256 of the fields above
}

// HeaderBytes is the canonical encoding of everything but the nonce and hash.
// The miner computes it once and appends nonces to it.
func (b *Block) HeaderBytes() ([]byte, error) {
	header := struct {
		Index        uint64        `json:"index"`
		Timestamp    string        `json:"timestamp"`
		Transactions []Transaction `json:"transactions"`
		PreviousHash string        `json:"previous_hash"`
	}{
		b.Index,
		b.Timestamp.UTC().Format(time.RFC3339Nano),
		b.Transactions,
		b.PreviousHash,
	}
	if header.Transactions == nil {
		header.Transactions = []Transaction{}
	}
	return json.Marshal(header)
}

// HashWithNonce hashes a header prefix together with a nonce.
func HashWithNonce(header []byte, nonce uint64) ids.ID {
	h := sha256.New()
	h.Write(header)
	var buf [20]byte
	h.Write(strconv.AppendUint(buf[:0], nonce, 10))
	var id ids.ID
	copy(id[:], h.Sum(nil))
	return id
}

// ComputeID recomputes the block hash from its fields and nonce.
func (b *Block) ComputeID() (ids.ID, error) {
	header, err := b.HeaderBytes()
	if err != nil {
		return ids.Empty, err
	}
	return HashWithNonce(header, b.Nonce), nil
}

// Serialize encodes Block into JSON
func (b *Block) Serialize() ([]byte, error) {
	return json.Marshal(b)
}

// Deserialize decodes JSON into Block
func Deserialize(data []byte) (*Block, error) {
	var b Block
	err := json.Unmarshal(data, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Clone returns a deep copy so a caller can mutate without touching a
// published block.
func (b Block) Clone() Block {
	out := b
	out.Transactions = make([]Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		out.Transactions[i] = tx.clone()
	}
	return out
}

func (tx Transaction) clone() Transaction {
	out := tx
	if tx.Parties != nil {
		p := *tx.Parties
		out.Parties = &p
	}
	if tx.Payload.Case != nil {
		c := *tx.Payload.Case
		out.Payload.Case = &c
	}
	if tx.Payload.Document != nil {
		d := *tx.Payload.Document
		out.Payload.Document = &d
	}
	if tx.Payload.Hearing != nil {
		h := *tx.Payload.Hearing
		out.Payload.Hearing = &h
	}
	if tx.Payload.Judgment != nil {
		j := *tx.Payload.Judgment
		out.Payload.Judgment = &j
	}
	if tx.Payload.Genesis != nil {
		g := *tx.Payload.Genesis
		out.Payload.Genesis = &g
	}
	return out
}
