package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
)

// MarkerCaseID and MarkerJudge identify the genesis marker transaction.
const (
	MarkerCaseID = "GENESIS-0"
	MarkerJudge  = "Sistema_Judicial"
	MarkerTxID   = "00000000-0000-0000-0000-000000000000"
)

var GenesisDescription = "Bloque génesis del sistema judicial"

// ErrNotGenesis is returned when block 0 does not carry the marker.
var ErrNotGenesis = errors.New("block is not a genesis block")

// MaxDifficulty bounds the proof-of-work target; each extra digit costs
// sixteen times more hashing.
const MaxDifficulty = 8

func checkDifficulty(d int) error {
	if d < 0 || d > MaxDifficulty {
		return fmt.Errorf("genesis difficulty must be between 0 and %d, got %d", MaxDifficulty, d)
	}
	return nil
}

// LoadGenesisConfig loads the genesis config from genesis.json
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read genesis config: %w", err)
	}
	var config GenesisConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("could not parse genesis config: %w", err)
	}
	if err := checkDifficulty(config.Difficulty); err != nil {
		return nil, err
	}
	return &config, nil
}

// CreateGenesisBlock builds block 0. The hash is computed the same way as any
// other block with nonce 0 and is not required to meet the difficulty.
func CreateGenesisBlock(cfg *GenesisConfig) (block.Block, error) {
	if err := checkDifficulty(cfg.Difficulty); err != nil {
		return block.Block{}, err
	}
	ts := cfg.GenesisTime
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	description := cfg.Description
	if description == "" {
		description = GenesisDescription
	}
	g := block.Block{
		Index:     0,
		Timestamp: ts,
		Transactions: []block.Transaction{{
			TxID:   MarkerTxID,
			Action: block.ActionGenesis,
			CaseID: MarkerCaseID,
			Judge:  MarkerJudge,
			Payload: block.Payload{Genesis: &block.GenesisMarker{
				Description: description,
				Difficulty:  cfg.Difficulty,
			}},
			Timestamp: ts,
		}},
		PreviousHash: "",
		Nonce:        0,
	}
	id, err := g.ComputeID()
	if err != nil {
		return block.Block{}, fmt.Errorf("hash genesis: %w", err)
	}
	g.Hash = id.String()
	return g, nil
}

// Difficulty reads the proof-of-work target recorded in a genesis block.
func Difficulty(b block.Block) (int, error) {
	if b.Index != 0 || b.PreviousHash != "" || len(b.Transactions) != 1 {
		return 0, ErrNotGenesis
	}
	tx := b.Transactions[0]
	if tx.Action != block.ActionGenesis || tx.Payload.Genesis == nil {
		return 0, ErrNotGenesis
	}
	if err := checkDifficulty(tx.Payload.Genesis.Difficulty); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotGenesis, err)
	}
	return tx.Payload.Genesis.Difficulty, nil
}
