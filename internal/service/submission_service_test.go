package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/skills"
)

func newTestSubmissionService(submissions *stubSubmissionRepo, tasks *stubTaskRepo) SubmissionService {
	integrity := NewIntegrityService(submissions, IntegrityOptions{}, zerolog.Nop())
	scoring := newTestScoringService(nil, ScoringOptions{})
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewSubmissionService(submissions, tasks, integrity, scoring, validate, zerolog.Nop())
}

func activeWebTask(now time.Time) models.Task {
	return models.Task{
		ID:            5,
		Title:         "Build a FizzBuzz CLI",
		SkillCategory: skills.WebDevelopment,
		TaskType:      models.TaskTypePractice,
		IsActive:      true,
		CreatedAt:     now.AddDate(0, 0, -2),
	}
}

func TestSubmitAcceptsCleanSubmission(t *testing.T) {
	now := time.Now().UTC()
	submissions := &stubSubmissionRepo{}
	tasks := &stubTaskRepo{tasks: []models.Task{activeWebTask(now)}}
	svc := newTestSubmissionService(submissions, tasks)

	resp, err := svc.Submit(context.Background(), 1, dto.SubmissionCreateRequest{
		TaskID:   5,
		Content:  sampleGoSolution,
		Language: "Go",
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, resp.Status)
	require.Equal(t, "go", resp.Language)
	require.NotNil(t, resp.Integrity)
	// The corpus was empty at check time, so the result is determinate.
	require.Equal(t, 1.0, resp.Integrity.Confidence)
	require.Equal(t, models.RiskLevelLow, resp.Integrity.RiskLevel)
	require.Equal(t, []uint{5}, tasks.incremented)
	require.Len(t, submissions.inserted, 1)
}

func TestSubmitInsertsOnlyAfterIntegrityCheck(t *testing.T) {
	now := time.Now().UTC()
	submissions := &stubSubmissionRepo{}
	tasks := &stubTaskRepo{tasks: []models.Task{activeWebTask(now)}}
	svc := newTestSubmissionService(submissions, tasks)

	// The first submission cannot match itself: its content enters the
	// corpus only after its own check has completed.
	first, err := svc.Submit(context.Background(), 1, dto.SubmissionCreateRequest{TaskID: 5, Content: sampleGoSolution, Language: "go"})
	require.NoError(t, err)
	require.Zero(t, first.Integrity.Similarity)
	require.Equal(t, models.SubmissionStatusSubmitted, first.Status)

	// A different user submitting the same content now matches it.
	second, err := svc.Submit(context.Background(), 2, dto.SubmissionCreateRequest{TaskID: 5, Content: sampleGoSolution, Language: "go"})
	require.NoError(t, err)
	require.InDelta(t, 1.0, second.Integrity.Similarity, 1e-9)
	require.Equal(t, models.SubmissionStatusFlagged, second.Status)
}

func TestSubmitFlaggedSkipsCompletionIncrement(t *testing.T) {
	now := time.Now().UTC()
	submissions := &stubSubmissionRepo{submissions: []models.Submission{
		{ID: 1, TaskID: 5, UserID: 2, Content: sampleGoSolution, Language: "go"},
	}}
	tasks := &stubTaskRepo{tasks: []models.Task{activeWebTask(now)}}
	svc := newTestSubmissionService(submissions, tasks)

	resp, err := svc.Submit(context.Background(), 1, dto.SubmissionCreateRequest{TaskID: 5, Content: sampleGoSolution, Language: "go"})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusFlagged, resp.Status)
	require.Equal(t, models.RiskLevelHigh, resp.Integrity.RiskLevel)
	require.Empty(t, tasks.incremented)
	// Flagged submissions still enter the corpus for later comparisons.
	require.Len(t, submissions.inserted, 1)
}

func TestSubmitRejectsInactiveTask(t *testing.T) {
	now := time.Now().UTC()
	retired := activeWebTask(now)
	retired.IsActive = false
	tasks := &stubTaskRepo{tasks: []models.Task{retired}}
	svc := newTestSubmissionService(&stubSubmissionRepo{}, tasks)

	_, err := svc.Submit(context.Background(), 1, dto.SubmissionCreateRequest{TaskID: 5, Content: "x", Language: "go"})
	require.ErrorIs(t, err, ErrSubmissionTaskInactive)
}

func TestSubmitRejectsUnknownTask(t *testing.T) {
	svc := newTestSubmissionService(&stubSubmissionRepo{}, &stubTaskRepo{})

	_, err := svc.Submit(context.Background(), 1, dto.SubmissionCreateRequest{TaskID: 99, Content: "x", Language: "go"})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSubmitRejectsInvalidPayload(t *testing.T) {
	now := time.Now().UTC()
	tasks := &stubTaskRepo{tasks: []models.Task{activeWebTask(now)}}
	svc := newTestSubmissionService(&stubSubmissionRepo{}, tasks)

	_, err := svc.Submit(context.Background(), 1, dto.SubmissionCreateRequest{TaskID: 5, Content: "", Language: "go"})
	require.Error(t, err)
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestSubmitRefusesWhenCorpusUnavailable(t *testing.T) {
	now := time.Now().UTC()
	submissions := &stubSubmissionRepo{queryErr: errors.New("connection refused")}
	tasks := &stubTaskRepo{tasks: []models.Task{activeWebTask(now)}}
	svc := newTestSubmissionService(submissions, tasks)

	_, err := svc.Submit(context.Background(), 1, dto.SubmissionCreateRequest{TaskID: 5, Content: "x := 1", Language: "go"})
	require.ErrorIs(t, err, ErrCorpusUnavailable)
	require.Empty(t, submissions.inserted)
	require.Empty(t, tasks.incremented)
}

func TestScoreAppliesSkillWeight(t *testing.T) {
	now := time.Now().UTC()
	submissions := &stubSubmissionRepo{submissions: []models.Submission{
		{ID: 1, TaskID: 5, UserID: 1, SkillCategory: skills.WebDevelopment, Status: models.SubmissionStatusSubmitted},
	}}
	tasks := &stubTaskRepo{tasks: []models.Task{activeWebTask(now)}}
	svc := newTestSubmissionService(submissions, tasks)

	resp, err := svc.Score(context.Background(), 1, dto.SubmissionScoreRequest{RawScore: 100})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusScored, resp.Status)
	require.NotNil(t, resp.PointsAwarded)
	require.InDelta(t, 169.0, *resp.PointsAwarded, 1e-9)
	require.Len(t, submissions.updated, 1)
}

func TestScoreAppliesProjectWeightForMiniProjects(t *testing.T) {
	now := time.Now().UTC()
	project := activeWebTask(now)
	project.TaskType = models.TaskTypeMiniProject
	submissions := &stubSubmissionRepo{submissions: []models.Submission{
		{ID: 1, TaskID: 5, UserID: 1, SkillCategory: skills.WebDevelopment, Status: models.SubmissionStatusSubmitted},
	}}
	tasks := &stubTaskRepo{tasks: []models.Task{project}}
	svc := newTestSubmissionService(submissions, tasks)

	resp, err := svc.Score(context.Background(), 1, dto.SubmissionScoreRequest{RawScore: 100})
	require.NoError(t, err)
	// 100 * 1.3 base * 1.5 project weight.
	require.InDelta(t, 195.0, *resp.PointsAwarded, 1e-9)
}

func TestScoreIsIdempotentForSameRawScore(t *testing.T) {
	rawScore := 80.0
	points := 135.2
	submissions := &stubSubmissionRepo{submissions: []models.Submission{
		{
			ID:            1,
			TaskID:        5,
			UserID:        1,
			SkillCategory: skills.WebDevelopment,
			Status:        models.SubmissionStatusScored,
			RawScore:      &rawScore,
			PointsAwarded: &points,
		},
	}}
	svc := newTestSubmissionService(submissions, &stubTaskRepo{})

	resp, err := svc.Score(context.Background(), 1, dto.SubmissionScoreRequest{RawScore: 80})
	require.NoError(t, err)
	require.Equal(t, points, *resp.PointsAwarded)
	require.Empty(t, submissions.updated)
}

func TestScoreRejectsFlaggedSubmission(t *testing.T) {
	submissions := &stubSubmissionRepo{submissions: []models.Submission{
		{ID: 1, TaskID: 5, UserID: 1, SkillCategory: skills.WebDevelopment, Status: models.SubmissionStatusFlagged},
	}}
	svc := newTestSubmissionService(submissions, &stubTaskRepo{})

	_, err := svc.Score(context.Background(), 1, dto.SubmissionScoreRequest{RawScore: 80})
	require.ErrorIs(t, err, ErrSubmissionFlagged)
}

func TestScoreUnknownSubmission(t *testing.T) {
	svc := newTestSubmissionService(&stubSubmissionRepo{}, &stubTaskRepo{})

	_, err := svc.Score(context.Background(), 42, dto.SubmissionScoreRequest{RawScore: 80})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestGetSubmission(t *testing.T) {
	submissions := &stubSubmissionRepo{submissions: []models.Submission{
		{ID: 1, TaskID: 5, UserID: 1, SkillCategory: skills.WebDevelopment, Status: models.SubmissionStatusSubmitted},
	}}
	svc := newTestSubmissionService(submissions, &stubTaskRepo{})

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, uint(1), resp.ID)
	// Stored integrity details are not replayed on reads.
	require.Nil(t, resp.Integrity)

	_, err = svc.Get(context.Background(), 99)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
