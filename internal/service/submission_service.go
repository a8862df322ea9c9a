package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/observability"
	"github.com/skillpulse/skillpulse-api/internal/repository"
)

// ErrSubmissionNotFound indicates the submission cannot be located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionTaskInactive indicates the targeted task has been retired.
var ErrSubmissionTaskInactive = errors.New("task is no longer accepting submissions")

// ErrSubmissionFlagged indicates a flagged submission awaiting manual review.
var ErrSubmissionFlagged = errors.New("submission is flagged for integrity review")

// SubmissionService orders the submission workflow: integrity check first,
// corpus insert second, scoring last. A submission is never inserted into the
// corpus before its own check completes, so it cannot match itself.
type SubmissionService interface {
	Submit(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Score(ctx context.Context, id uint, payload dto.SubmissionScoreRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	tasks       repository.TaskRepository
	integrity   IntegrityService
	scoring     ScoringService
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService builds the submission workflow service.
func NewSubmissionService(submissions repository.SubmissionRepository, tasks repository.TaskRepository, integrity IntegrityService, scoring ScoringService, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		tasks:       tasks,
		integrity:   integrity,
		scoring:     scoring,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/skillpulse/skillpulse-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("task.id", int64(payload.TaskID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	task, err := s.tasks.GetByID(ctx, payload.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrTaskNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if !task.IsActive {
		return dto.SubmissionResponse{}, ErrSubmissionTaskInactive
	}

	taskID := task.ID
	report, err := s.integrity.DetectPlagiarism(ctx, payload.Content, payload.Language, userID, repository.CorpusScope{TaskID: &taskID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "integrity_check_failed")
		return dto.SubmissionResponse{}, err
	}

	submittedAt := s.now().UTC()
	similarity := report.Similarity
	submission := models.Submission{
		TaskID:           task.ID,
		UserID:           userID,
		SkillCategory:    task.SkillCategory,
		Content:          payload.Content,
		Language:         strings.ToLower(strings.TrimSpace(payload.Language)),
		Status:           models.SubmissionStatusSubmitted,
		Similarity:       &similarity,
		MatchedSources:   report.MatchedSources,
		HighlightedLines: report.HighlightedLines,
		SubmittedAt:      submittedAt,
	}

	if report.RiskLevel == models.RiskLevelHigh {
		submission.Status = models.SubmissionStatusFlagged
	}

	if err := s.submissions.Insert(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_insert_failed")
		return dto.SubmissionResponse{}, err
	}

	if submission.Status == models.SubmissionStatusSubmitted {
		if err := s.tasks.IncrementCompletions(ctx, task.ID); err != nil {
			s.logger.Warn().Err(err).Uint("task_id", task.ID).Msg("failed to increment task completions")
		}
	}

	span.SetAttributes(
		attribute.Float64("integrity.similarity", report.Similarity),
		attribute.String("submission.status", submission.Status),
	)

	return dto.NewSubmissionResponse(submission, &report), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, nil), nil
}

func (s *submissionService) Score(ctx context.Context, id uint, payload dto.SubmissionScoreRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.score", trace.WithAttributes(
		attribute.Int64("submission.id", int64(id)),
		attribute.Float64("raw_score", payload.RawScore),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.Status == models.SubmissionStatusFlagged {
		return dto.SubmissionResponse{}, ErrSubmissionFlagged
	}

	if submission.IsScored() && submission.RawScore != nil && math.Abs(*submission.RawScore-payload.RawScore) < 1e-9 {
		span.SetAttributes(attribute.Bool("scoring.idempotent", true))
		return dto.NewSubmissionResponse(submission, nil), nil
	}

	weightKey := DefaultWeightKey
	task, err := s.tasks.GetByID(ctx, submission.TaskID)
	if err == nil && task.TaskType == models.TaskTypeMiniProject {
		weightKey = "project"
	}

	points, err := s.scoring.ComputePointsForSkill(submission.SkillCategory.String(), payload.RawScore, weightKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring_failed")
		return dto.SubmissionResponse{}, err
	}

	rawScore := payload.RawScore
	submission.RawScore = &rawScore
	submission.PointsAwarded = &points
	submission.Status = models.SubmissionStatusScored

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.PointsAwarded().WithLabelValues(submission.SkillCategory.String()).Add(points)
	span.SetAttributes(attribute.Float64("points_awarded", points))

	return dto.NewSubmissionResponse(submission, nil), nil
}
