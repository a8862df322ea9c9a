package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/skillpulse/skillpulse-api/internal/skills"
)

// Submission lifecycle states.
const (
	// SubmissionStatusSubmitted indicates the submission passed the integrity
	// check and is awaiting evaluation.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusFlagged indicates the integrity check found a high-risk match.
	SubmissionStatusFlagged = "flagged"
	// SubmissionStatusScored indicates points have been awarded.
	SubmissionStatusScored = "scored"
)

// MatchedSource records one corpus submission a new submission resembles.
type MatchedSource struct {
	SourceSubmissionID uint    `json:"source_submission_id"`
	Similarity         float64 `json:"similarity"`
}

// Submission is a user's solution to a task, together with the integrity and
// scoring results attached to it as they become available.
type Submission struct {
	ID               uint                                 `gorm:"primaryKey" json:"id"`
	TaskID           uint                                 `gorm:"not null;index" json:"task_id"`
	UserID           uint                                 `gorm:"not null;index" json:"user_id"`
	SkillCategory    skills.Area                          `gorm:"size:64;not null;index" json:"skill_category"`
	Content          string                               `gorm:"type:text;not null" json:"content"`
	Language         string                               `gorm:"size:32;not null" json:"language"`
	Status           string                               `gorm:"size:32;not null" json:"status"`
	RawScore         *float64                             `json:"raw_score,omitempty"`
	PointsAwarded    *float64                             `json:"points_awarded,omitempty"`
	Similarity       *float64                             `json:"similarity,omitempty"`
	MatchedSources   datatypes.JSONSlice[MatchedSource]   `json:"matched_sources,omitempty"`
	HighlightedLines datatypes.JSONSlice[int]             `json:"highlighted_lines,omitempty"`
	SubmittedAt      time.Time                            `json:"submitted_at"`
	CreatedAt        time.Time                            `json:"created_at"`
	UpdatedAt        time.Time                            `json:"updated_at"`
	Task             Task                                 `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task"`
}

// IsScored reports whether points have been awarded.
func (s Submission) IsScored() bool {
	return s.Status == SubmissionStatusScored
}
