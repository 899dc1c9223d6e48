package steam

import "github.com/halo-extras/backend/internal/domain/steam"

// TestResult reports a Steam API connectivity check
type TestResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	GameCount int    `json:"gameCount,omitempty"`
}

// RefreshResult reports a forced library rebuild
type RefreshResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *steam.Library `json:"data,omitempty"`
}
