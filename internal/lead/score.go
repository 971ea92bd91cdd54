package lead

import "time"

// ScoreResult is the auditable outcome of scoring one candidate.
type ScoreResult struct {
	// Total is the capped sum of all sub-scores, always within [0, 100].
	Total int `json:"total"`
	// Breakdown maps each sub-score name to its contribution. Every entry
	// is individually capped at the sub-score's configured weight.
	Breakdown map[string]int `json:"breakdown"`
	// Errors records sub-scores that failed and were degraded to zero.
	Errors     []string  `json:"errors,omitempty"`
	ComputedAt time.Time `json:"computed_at"`
}
