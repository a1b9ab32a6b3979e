package genesis

import "time"

// GenesisConfig is the optional genesis.json that pins the first block.
// Without one the node seals genesis at first start with the configured
// difficulty.
type GenesisConfig struct {
	ChainID     string    `json:"chainId"`
	GenesisTime time.Time `json:"genesisTime"`
	Difficulty  int       `json:"difficulty"`
	Description string    `json:"description,omitempty"`
}
