package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/repository"
	"github.com/skillpulse/skillpulse-api/internal/skills"
)

// TaskService exposes read access to the task pool.
type TaskService interface {
	List(ctx context.Context, filter dto.TaskFilter) (dto.TaskListResponse, error)
	Get(ctx context.Context, id uint) (dto.TaskDetailResponse, error)
}

type taskService struct {
	repo     repository.TaskRepository
	rotation RotationService
	logger   zerolog.Logger
}

// NewTaskService builds a new task service.
func NewTaskService(repo repository.TaskRepository, rotation RotationService, logger zerolog.Logger) TaskService {
	return &taskService{
		repo:     repo,
		rotation: rotation,
		logger:   logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *taskService) List(ctx context.Context, filter dto.TaskFilter) (dto.TaskListResponse, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := repository.TaskQuery{
		TaskType:   strings.ToLower(strings.TrimSpace(filter.TaskType)),
		ActiveOnly: filter.ActiveOnly,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	}

	if filter.SkillCategory != "" {
		area, err := skills.Parse(filter.SkillCategory)
		if err != nil {
			return dto.TaskListResponse{}, err
		}
		query.SkillCategory = area
	}

	tasks, total, err := s.repo.List(ctx, query)
	if err != nil {
		return dto.TaskListResponse{}, err
	}

	pagination := dto.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int(total),
	}

	return dto.NewTaskListResponse(tasks, pagination), nil
}

func (s *taskService) Get(ctx context.Context, id uint) (dto.TaskDetailResponse, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskDetailResponse{}, ErrTaskNotFound
		}
		return dto.TaskDetailResponse{}, err
	}

	return dto.NewTaskDetail(task, s.rotation.Outlook(task)), nil
}
