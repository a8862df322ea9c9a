package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/skills"
)

// TaskQuery defines filters and pagination for task listings.
type TaskQuery struct {
	SkillCategory skills.Area
	TaskType      string
	ActiveOnly    bool
	Offset        int
	Limit         int
}

// TaskRepository exposes persistence operations on the task pool.
type TaskRepository interface {
	List(ctx context.Context, query TaskQuery) ([]models.Task, int64, error)
	ListAll(ctx context.Context, activeOnly bool) ([]models.Task, error)
	GetByID(ctx context.Context, id uint) (models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Save(ctx context.Context, task *models.Task) error
	// FindReplacement returns the task previously generated to replace the
	// given original, if any. Backs the replacement idempotency key.
	FindReplacement(ctx context.Context, originalID uint) (models.Task, error)
	// SaveRotationBatch persists a sweep's retirements and replacements in a
	// single transaction so a failed sweep leaves the pool untouched.
	SaveRotationBatch(ctx context.Context, rotated []models.Task, replacements []models.Task) error
	IncrementCompletions(ctx context.Context, id uint) error
}

// NewTaskRepository constructs a task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

type taskRepository struct {
	db *gorm.DB
}

func (r *taskRepository) List(ctx context.Context, query TaskQuery) ([]models.Task, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Task{})

	if query.SkillCategory != "" {
		db = db.Where("skill_category = ?", query.SkillCategory.String())
	}
	if query.TaskType != "" {
		db = db.Where("task_type = ?", query.TaskType)
	}
	if query.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.Offset > 0 {
		db = db.Offset(query.Offset)
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	db = db.Order("created_at DESC")

	var tasks []models.Task
	if err := db.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *taskRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.Task, error) {
	db := r.db.WithContext(ctx).Model(&models.Task{})
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}

	var tasks []models.Task
	if err := db.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Save(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) FindReplacement(ctx context.Context, originalID uint) (models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Where("rotated_from_id = ?", originalID).First(&task).Error
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (r *taskRepository) SaveRotationBatch(ctx context.Context, rotated []models.Task, replacements []models.Task) error {
	if len(rotated) == 0 && len(replacements) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rotated {
			if err := tx.Save(&rotated[i]).Error; err != nil {
				return err
			}
		}
		for i := range replacements {
			if err := tx.Create(&replacements[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *taskRepository) IncrementCompletions(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("completion_count", gorm.Expr("completion_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("task is not active")
	}
	return nil
}
