package models

import "time"

// RotationStats aggregates the health of the task pool. Derived on demand,
// never persisted.
type RotationStats struct {
	TotalTasks          int     `json:"total_tasks"`
	ActiveTasks         int     `json:"active_tasks"`
	RotatedTasks        int     `json:"rotated_tasks"`
	ApproachingRotation int     `json:"approaching_rotation"`
	AverageAge          float64 `json:"average_age"`
	AverageCompletions  float64 `json:"average_completions"`
}

// RotationOutlook describes how close an active task is to retirement.
type RotationOutlook struct {
	Approaching     bool `json:"approaching"`
	DaysLeft        int  `json:"days_left"`
	CompletionsLeft int  `json:"completions_left"`
}

// PlagiarismReport is the outcome of an integrity check on a single submission.
type PlagiarismReport struct {
	Similarity       float64         `json:"similarity"`
	MatchedSources   []MatchedSource `json:"matched_sources"`
	HighlightedLines []int           `json:"highlighted_lines"`
	Confidence       float64         `json:"confidence"`
	RiskLevel        string          `json:"risk_level"`
	Timestamp        time.Time       `json:"timestamp"`
}

// Plagiarism risk bands derived from the best-match similarity.
const (
	RiskLevelHigh     = "high"
	RiskLevelModerate = "moderate"
	RiskLevelLow      = "low"
)
