package dto

import (
	"time"

	"github.com/skillpulse/skillpulse-api/internal/models"
)

// TaskFilter defines query parameters for listing tasks.
type TaskFilter struct {
	SkillCategory string `query:"skill"`
	TaskType      string `query:"task_type"`
	ActiveOnly    bool   `query:"active_only"`
	Page          int    `query:"page"`
	PageSize      int    `query:"page_size"`
}

// Pagination describes pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
}

// TaskResponse represents a task returned by the API.
type TaskResponse struct {
	ID                       uint       `json:"id"`
	Title                    string     `json:"title"`
	Description              string     `json:"description"`
	SkillCategory            string     `json:"skill_category"`
	SkillLabel               string     `json:"skill_label"`
	TaskType                 string     `json:"task_type"`
	BasePoints               int        `json:"base_points"`
	MaxPoints                int        `json:"max_points"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes"`
	CompletionCount          int        `json:"completion_count"`
	MaxCompletions           int        `json:"max_completions"`
	IsActive                 bool       `json:"is_active"`
	RotationReason           string     `json:"rotation_reason,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	ExpiresAt                *time.Time `json:"expires_at,omitempty"`
}

// TaskListResponse wraps tasks and pagination metadata.
type TaskListResponse struct {
	Items      []TaskResponse `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

// TaskDetailResponse extends TaskResponse with the rotation outlook.
type TaskDetailResponse struct {
	TaskResponse
	Rotation models.RotationOutlook `json:"rotation"`
}

// NewTaskResponse builds a response DTO from the model.
func NewTaskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:                       task.ID,
		Title:                    task.Title,
		Description:              task.Description,
		SkillCategory:            task.SkillCategory.String(),
		SkillLabel:               task.SkillCategory.Label(),
		TaskType:                 task.TaskType,
		BasePoints:               task.BasePoints,
		MaxPoints:                task.MaxPoints,
		EstimatedDurationMinutes: task.EstimatedDurationMinutes,
		CompletionCount:          task.CompletionCount,
		MaxCompletions:           task.MaxCompletions,
		IsActive:                 task.IsActive,
		RotationReason:           task.RotationReason,
		CreatedAt:                task.CreatedAt,
		ExpiresAt:                task.ExpiresAt,
	}
}

// NewTaskDetail builds a detail DTO from the model and its rotation outlook.
func NewTaskDetail(task models.Task, outlook models.RotationOutlook) TaskDetailResponse {
	return TaskDetailResponse{TaskResponse: NewTaskResponse(task), Rotation: outlook}
}

// NewTaskListResponse builds a list response from models and pagination meta.
func NewTaskListResponse(tasks []models.Task, pagination Pagination) TaskListResponse {
	items := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, NewTaskResponse(task))
	}

	return TaskListResponse{
		Items:      items,
		Pagination: pagination,
	}
}
