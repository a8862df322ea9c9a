package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/skillpulse/skillpulse-api/internal/config"
	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/observability"
	"github.com/skillpulse/skillpulse-api/internal/repository"
	"github.com/skillpulse/skillpulse-api/pkg/forge"
)

// ErrInvalidRotationPolicy indicates non-positive rotation limits.
var ErrInvalidRotationPolicy = errors.New("invalid rotation policy")

// ErrTaskStoreUnavailable indicates the task store could not be reached.
var ErrTaskStoreUnavailable = errors.New("task store unavailable")

// ErrTaskNotFound indicates the requested task does not exist.
var ErrTaskNotFound = errors.New("task not found")

// SweepResult summarises one rotation sweep.
type SweepResult struct {
	Evaluated    int           `json:"evaluated"`
	Rotated      int           `json:"rotated"`
	Replacements int           `json:"replacements"`
	Duration     time.Duration `json:"duration"`
}

// RotationService decides when generated tasks retire and coordinates their
// replacement. The decision functions are pure; only GenerateReplacement and
// Sweep touch the store.
type RotationService interface {
	ShouldRotate(task models.Task) (bool, string)
	Rotate(task models.Task, reason string) models.Task
	BatchEvaluate(tasks []models.Task) (rotated []models.Task, remaining []models.Task)
	Outlook(task models.Task) models.RotationOutlook
	GenerateReplacement(ctx context.Context, original models.Task) (models.Task, error)
	Stats(tasks []models.Task) models.RotationStats
	Sweep(ctx context.Context) (SweepResult, error)
}

type rotationService struct {
	tasks     repository.TaskRepository
	generator forge.Generator
	events    RotationEventPublisher
	policy    config.RotationPolicy
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewRotationService builds the rotation engine. It fails fast on a policy
// with non-positive limits so a misconfigured deployment never sweeps.
func NewRotationService(tasks repository.TaskRepository, generator forge.Generator, events RotationEventPublisher, policy config.RotationPolicy, logger zerolog.Logger) (RotationService, error) {
	if policy.MaxAgeDays <= 0 {
		return nil, fmt.Errorf("%w: max age days must be positive, got %d", ErrInvalidRotationPolicy, policy.MaxAgeDays)
	}
	if policy.MaxCompletions <= 0 {
		return nil, fmt.Errorf("%w: max completions must be positive, got %d", ErrInvalidRotationPolicy, policy.MaxCompletions)
	}

	return &rotationService{
		tasks:     tasks,
		generator: generator,
		events:    events,
		policy:    policy,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "rotation_service").Logger(),
		tracer:    otel.Tracer("github.com/skillpulse/skillpulse-api/internal/service/rotation"),
		now:       time.Now,
	}, nil
}

// ShouldRotate evaluates the retirement rules in precedence order: manual
// deactivation first, then age, then completions. Equality at a limit retires
// the task.
func (s *rotationService) ShouldRotate(task models.Task) (bool, string) {
	if !task.IsActive {
		return true, models.RotationReasonManual
	}
	if task.AgeInDays(s.now()) >= s.policy.MaxAgeDays {
		return true, models.RotationReasonTimeExpired
	}
	if task.CompletionCount >= s.maxCompletions(task) {
		return true, models.RotationReasonCompletionLimit
	}
	return false, ""
}

// Rotate returns the retired copy of the task. Identity, content, and the
// completion count are untouched; the transition is terminal.
func (s *rotationService) Rotate(task models.Task, reason string) models.Task {
	expires := s.now().UTC()
	task.IsActive = false
	task.RotationReason = reason
	task.ExpiresAt = &expires
	return task
}

// BatchEvaluate partitions tasks into retired and surviving sets, preserving
// the input order within each partition.
func (s *rotationService) BatchEvaluate(tasks []models.Task) ([]models.Task, []models.Task) {
	rotated := make([]models.Task, 0, len(tasks))
	remaining := make([]models.Task, 0, len(tasks))

	for _, task := range tasks {
		if rotate, reason := s.ShouldRotate(task); rotate {
			rotated = append(rotated, s.Rotate(task, reason))
		} else {
			remaining = append(remaining, task)
		}
	}

	return rotated, remaining
}

// Outlook reports how close an active task is to retirement.
func (s *rotationService) Outlook(task models.Task) models.RotationOutlook {
	daysLeft := s.policy.MaxAgeDays - task.AgeInDays(s.now())
	if daysLeft < 0 {
		daysLeft = 0
	}

	completionsLeft := s.maxCompletions(task) - task.CompletionCount
	if completionsLeft < 0 {
		completionsLeft = 0
	}

	return models.RotationOutlook{
		Approaching:     daysLeft <= s.policy.ApproachingDays || completionsLeft <= s.policy.ApproachingCompletions,
		DaysLeft:        daysLeft,
		CompletionsLeft: completionsLeft,
	}
}

// GenerateReplacement builds the successor task for a retired original. The
// call is idempotent keyed by the original task id: a replacement that already
// exists in the store is returned instead of a new draft, so a retried sweep
// cannot duplicate work.
func (s *rotationService) GenerateReplacement(ctx context.Context, original models.Task) (models.Task, error) {
	ctx, span := s.tracer.Start(ctx, "rotation.generate_replacement", trace.WithAttributes(
		attribute.Int64("task.id", int64(original.ID)),
		attribute.String("task.skill", original.SkillCategory.String()),
	))
	defer span.End()

	if original.ID != 0 {
		existing, err := s.tasks.FindReplacement(ctx, original.ID)
		if err == nil {
			span.SetAttributes(attribute.Bool("rotation.idempotent", true))
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "replacement_lookup_failed")
			return models.Task{}, fmt.Errorf("%w: %v", ErrTaskStoreUnavailable, err)
		}
	}

	draft, err := s.generator.Generate(ctx, forge.Seed{
		SkillCategory:            original.SkillCategory.String(),
		SkillLabel:               original.SkillCategory.Label(),
		TaskType:                 original.TaskType,
		BasePoints:               original.BasePoints,
		MaxPoints:                original.MaxPoints,
		EstimatedDurationMinutes: original.EstimatedDurationMinutes,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation_failed")
		return models.Task{}, fmt.Errorf("generate replacement for task %d: %w", original.ID, err)
	}

	originalID := original.ID
	replacement := models.Task{
		Title:                    strings.TrimSpace(s.sanitizer.Sanitize(draft.Title)),
		Description:              strings.TrimSpace(s.sanitizer.Sanitize(draft.Description)),
		SkillCategory:            original.SkillCategory,
		TaskType:                 original.TaskType,
		BasePoints:               original.BasePoints,
		MaxPoints:                original.MaxPoints,
		EstimatedDurationMinutes: original.EstimatedDurationMinutes,
		MaxCompletions:           s.maxCompletions(original),
		CompletionCount:          0,
		IsActive:                 true,
		RotatedFromID:            &originalID,
		CreatedAt:                s.now().UTC(),
	}

	if replacement.Title == "" || replacement.Description == "" {
		return models.Task{}, fmt.Errorf("generated replacement for task %d is empty after sanitization", original.ID)
	}

	return replacement, nil
}

// Stats aggregates pool health over the given snapshot. All averages are
// zero-safe on empty input.
func (s *rotationService) Stats(tasks []models.Task) models.RotationStats {
	stats := models.RotationStats{TotalTasks: len(tasks)}
	if len(tasks) == 0 {
		return stats
	}

	now := s.now()
	var ageSum, completionSum float64
	for _, task := range tasks {
		completionSum += float64(task.CompletionCount)
		if !task.IsActive {
			continue
		}
		stats.ActiveTasks++
		ageSum += float64(task.AgeInDays(now))
		if s.Outlook(task).Approaching {
			stats.ApproachingRotation++
		}
	}

	stats.RotatedTasks = stats.TotalTasks - stats.ActiveTasks
	if stats.ActiveTasks > 0 {
		stats.AverageAge = ageSum / float64(stats.ActiveTasks)
	}
	stats.AverageCompletions = completionSum / float64(stats.TotalTasks)

	return stats
}

// Sweep runs one full rotation pass: snapshot, evaluate, generate
// replacements, and persist everything as a single batch. A failure anywhere
// leaves the task pool untouched; the scheduler retries on the next interval.
func (s *rotationService) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := s.tracer.Start(ctx, "rotation.sweep")
	defer span.End()

	start := s.now()

	snapshot, err := s.tasks.ListAll(ctx, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot_failed")
		observability.Sweeps().WithLabelValues("error").Inc()
		return SweepResult{}, fmt.Errorf("%w: %v", ErrTaskStoreUnavailable, err)
	}

	// Tasks already retired in a previous sweep carry a rotation reason and
	// need no further evaluation.
	candidates := make([]models.Task, 0, len(snapshot))
	for _, task := range snapshot {
		if !task.IsActive && task.RotationReason != "" {
			continue
		}
		candidates = append(candidates, task)
	}

	rotated, _ := s.BatchEvaluate(candidates)

	replacements := make([]models.Task, 0, len(rotated))
	for _, task := range rotated {
		replacement, err := s.GenerateReplacement(ctx, task)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "replacement_failed")
			observability.Sweeps().WithLabelValues("error").Inc()
			return SweepResult{}, err
		}
		if replacement.ID != 0 {
			// Already persisted by an earlier, interrupted sweep.
			continue
		}
		replacements = append(replacements, replacement)
	}

	if err := s.tasks.SaveRotationBatch(ctx, rotated, replacements); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		observability.Sweeps().WithLabelValues("error").Inc()
		return SweepResult{}, fmt.Errorf("%w: %v", ErrTaskStoreUnavailable, err)
	}

	for _, task := range rotated {
		observability.TasksRotated().WithLabelValues(task.RotationReason).Inc()
	}
	s.publishRotations(ctx, rotated, replacements)

	result := SweepResult{
		Evaluated:    len(candidates),
		Rotated:      len(rotated),
		Replacements: len(replacements),
		Duration:     s.now().Sub(start),
	}

	observability.Sweeps().WithLabelValues("ok").Inc()
	observability.SweepDuration().Observe(result.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("sweep.evaluated", result.Evaluated),
		attribute.Int("sweep.rotated", result.Rotated),
		attribute.Int("sweep.replacements", result.Replacements),
	)

	s.logger.Info().
		Int("evaluated", result.Evaluated).
		Int("rotated", result.Rotated).
		Int("replacements", result.Replacements).
		Dur("duration", result.Duration).
		Msg("rotation sweep completed")

	return result, nil
}

func (s *rotationService) publishRotations(ctx context.Context, rotated []models.Task, replacements []models.Task) {
	if s.events == nil || len(rotated) == 0 {
		return
	}

	replacementByOriginal := make(map[uint]uint, len(replacements))
	for _, replacement := range replacements {
		if replacement.RotatedFromID != nil {
			replacementByOriginal[*replacement.RotatedFromID] = replacement.ID
		}
	}

	for _, task := range rotated {
		event := RotationEvent{
			TaskID:        task.ID,
			ReplacementID: replacementByOriginal[task.ID],
			SkillCategory: task.SkillCategory.String(),
			Reason:        task.RotationReason,
			RotatedAt:     s.now().UTC(),
		}
		if err := s.events.PublishRotated(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("task_id", task.ID).Msg("failed to publish rotation event")
		}
	}
}

func (s *rotationService) maxCompletions(task models.Task) int {
	if task.MaxCompletions > 0 {
		return task.MaxCompletions
	}
	return s.policy.MaxCompletions
}
