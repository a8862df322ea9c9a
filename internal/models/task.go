package models

import (
	"time"

	"github.com/skillpulse/skillpulse-api/internal/skills"
)

// TaskType distinguishes quick practice drills from multi-session projects.
const (
	TaskTypePractice    = "practice"
	TaskTypeMiniProject = "mini_project"
)

// Rotation reasons recorded when a task is retired.
const (
	RotationReasonTimeExpired     = "time_expired"
	RotationReasonCompletionLimit = "completion_limit"
	RotationReasonManual          = "manual"
)

// Task is a generated exercise users submit solutions against. Tasks are
// retired (rotated) rather than edited: a replacement is always a brand-new
// record pointing back at the original via RotatedFromID.
type Task struct {
	ID                       uint        `gorm:"primaryKey" json:"id"`
	Title                    string      `gorm:"size:255;not null" json:"title"`
	Description              string      `gorm:"type:text;not null" json:"description"`
	SkillCategory            skills.Area `gorm:"size:64;not null;index" json:"skill_category"`
	TaskType                 string      `gorm:"size:32;not null" json:"task_type"`
	BasePoints               int         `gorm:"not null" json:"base_points"`
	MaxPoints                int         `gorm:"not null" json:"max_points"`
	EstimatedDurationMinutes int         `gorm:"not null" json:"estimated_duration_minutes"`
	CompletionCount          int         `gorm:"not null;default:0" json:"completion_count"`
	MaxCompletions           int         `gorm:"not null" json:"max_completions"`
	IsActive                 bool        `gorm:"not null;index" json:"is_active"`
	RotationReason           string      `gorm:"size:32" json:"rotation_reason,omitempty"`
	RotatedFromID            *uint       `gorm:"uniqueIndex" json:"rotated_from_id,omitempty"`
	CreatedAt                time.Time   `json:"created_at"`
	UpdatedAt                time.Time   `json:"updated_at"`
	ExpiresAt                *time.Time  `json:"expires_at,omitempty"`
}

// AgeInDays returns the whole number of days elapsed since creation.
func (t Task) AgeInDays(now time.Time) int {
	age := now.Sub(t.CreatedAt)
	if age < 0 {
		return 0
	}
	return int(age.Hours() / 24)
}
