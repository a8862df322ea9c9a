package dto

import (
	"time"

	"github.com/skillpulse/skillpulse-api/internal/models"
)

// SubmissionCreateRequest is the payload for submitting a solution.
type SubmissionCreateRequest struct {
	TaskID   uint   `json:"task_id" validate:"required,gt=0"`
	Content  string `json:"content" validate:"required,min=1"`
	Language string `json:"language" validate:"required,min=1,max=32"`
}

// SubmissionScoreRequest carries the raw evaluation score for a submission.
type SubmissionScoreRequest struct {
	RawScore float64 `json:"raw_score" validate:"gte=0,lte=100"`
}

// PlagiarismReportResponse mirrors the integrity check outcome.
type PlagiarismReportResponse struct {
	Similarity       float64                `json:"similarity"`
	MatchedSources   []models.MatchedSource `json:"matched_sources"`
	HighlightedLines []int                  `json:"highlighted_lines"`
	Confidence       float64                `json:"confidence"`
	RiskLevel        string                 `json:"risk_level"`
	Timestamp        time.Time              `json:"timestamp"`
}

// SubmissionResponse represents a submission returned by the API.
type SubmissionResponse struct {
	ID            uint                      `json:"id"`
	TaskID        uint                      `json:"task_id"`
	UserID        uint                      `json:"user_id"`
	SkillCategory string                    `json:"skill_category"`
	Language      string                    `json:"language"`
	Status        string                    `json:"status"`
	RawScore      *float64                  `json:"raw_score,omitempty"`
	PointsAwarded *float64                  `json:"points_awarded,omitempty"`
	Integrity     *PlagiarismReportResponse `json:"integrity,omitempty"`
	SubmittedAt   time.Time                 `json:"submitted_at"`
}

// NewPlagiarismReportResponse builds the report DTO.
func NewPlagiarismReportResponse(report models.PlagiarismReport) PlagiarismReportResponse {
	return PlagiarismReportResponse{
		Similarity:       report.Similarity,
		MatchedSources:   report.MatchedSources,
		HighlightedLines: report.HighlightedLines,
		Confidence:       report.Confidence,
		RiskLevel:        report.RiskLevel,
		Timestamp:        report.Timestamp,
	}
}

// NewSubmissionResponse builds a response DTO from the model.
func NewSubmissionResponse(submission models.Submission, report *models.PlagiarismReport) SubmissionResponse {
	response := SubmissionResponse{
		ID:            submission.ID,
		TaskID:        submission.TaskID,
		UserID:        submission.UserID,
		SkillCategory: submission.SkillCategory.String(),
		Language:      submission.Language,
		Status:        submission.Status,
		RawScore:      submission.RawScore,
		PointsAwarded: submission.PointsAwarded,
		SubmittedAt:   submission.SubmittedAt,
	}

	if report != nil {
		integrity := NewPlagiarismReportResponse(*report)
		response.Integrity = &integrity
	}

	return response
}
