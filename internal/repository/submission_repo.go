package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/skills"
)

// CorpusScope selects which prior submissions are candidates for an integrity
// comparison. Exactly one of TaskID or SkillCategory is expected to be set.
type CorpusScope struct {
	TaskID        *uint
	SkillCategory skills.Area
}

// SubmissionRepository exposes persistence operations on the submission corpus.
type SubmissionRepository interface {
	// Query returns candidate submissions within the scope, newest first.
	// A zero since time means the full history.
	Query(ctx context.Context, scope CorpusScope, since time.Time) ([]models.Submission, error)
	Insert(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Query(ctx context.Context, scope CorpusScope, since time.Time) ([]models.Submission, error) {
	db := r.db.WithContext(ctx).Model(&models.Submission{})

	if scope.TaskID != nil {
		db = db.Where("task_id = ?", *scope.TaskID)
	} else if scope.SkillCategory != "" {
		db = db.Where("skill_category = ?", scope.SkillCategory.String())
	}

	if !since.IsZero() {
		db = db.Where("submitted_at >= ?", since)
	}

	var submissions []models.Submission
	if err := db.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) Insert(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}
