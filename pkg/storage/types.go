package storage

import "time"

// AdvanceEvent records one run of the advance action.
type AdvanceEvent struct {
	OccurredAt time.Time `json:"occurred_at"`
	Platform   string    `json:"platform"`
	// Strategy is the scheduler state that triggered the advance.
	Strategy string `json:"strategy"`
	Route    string `json:"route"`
	Step     string `json:"step"`
	Fallback bool   `json:"fallback"`
}

// PlatformStats aggregates advance events of one platform.
type PlatformStats struct {
	Platform  string    `json:"platform"`
	Advances  int       `json:"advances"`
	Fallbacks int       `json:"fallbacks"`
	LastAt    time.Time `json:"last_at"`
}
