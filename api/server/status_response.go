// status_response.go - JSON response structs for status/health endpoints
package server

import (
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/chain"
)

// StatusResponse represents the JSON structure for /status endpoint
type StatusResponse struct {
	Status      string            `json:"status"`
	Uptime      int64             `json:"uptime_seconds"`
	BlockHeight int               `json:"block_height"`
	Pending     int               `json:"pending_transactions"`
	Version     string            `json:"version"`
	APIVersion  string            `json:"api_version"`
	LastBlock   string            `json:"last_block_time"`
	Metrics     NodeMetrics       `json:"metrics"`
	Corruption  *chain.Corruption `json:"corruption,omitempty"`
}

// HealthResponse for /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Blocks     int       `json:"blocks"`
	Difficulty int       `json:"difficulty"`
	Timestamp  time.Time `json:"timestamp"`
}

// LivenessResponse for /health/liveness
type LivenessResponse struct {
	Alive bool `json:"alive"`
}

// ReadinessResponse for /health/readiness
type ReadinessResponse struct {
	Ready bool `json:"ready"`
}
