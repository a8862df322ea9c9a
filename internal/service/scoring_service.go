package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/skills"
)

// ErrUnknownSkill indicates a skill slug with no scoring configuration.
var ErrUnknownSkill = errors.New("unknown skill configuration")

// ErrUnknownWeightKey indicates a weight key absent from the skill configuration.
var ErrUnknownWeightKey = errors.New("unknown weight key")

// ErrRawScoreOutOfRange indicates a raw score outside [0, 100].
var ErrRawScoreOutOfRange = errors.New("raw score out of range")

// DefaultWeightKey is the per-skill weight applied to ordinary practice scoring.
const DefaultWeightKey = "skill"

// ScoringOptions tunes the fairness analysis.
type ScoringOptions struct {
	FairnessThreshold float64
	ReferenceScore    float64
	CacheTTL          time.Duration
}

// ScoringService converts raw evaluation scores into awarded points under the
// per-skill fairness parameters. Point conversion is a pure computation; only
// the fairness report touches the cache.
type ScoringService interface {
	SkillConfiguration(slug string) (models.SkillConfiguration, error)
	ValidateSkillArea(slug string) bool
	ComputePoints(rawScore float64, cfg models.SkillConfiguration, weightKey string) (float64, error)
	ComputePointsForSkill(slug string, rawScore float64, weightKey string) (float64, error)
	ListConfigurations() []models.SkillConfiguration
	AnalyzeFairness(ctx context.Context) (dto.FairnessReport, error)
}

type scoringService struct {
	configs map[skills.Area]models.SkillConfiguration
	cache   *redis.Client
	opts    ScoringOptions
	logger  zerolog.Logger
	now     func() time.Time
}

// NewScoringService builds the scoring engine over an immutable configuration
// set loaded at startup.
func NewScoringService(configs map[skills.Area]models.SkillConfiguration, cache *redis.Client, opts ScoringOptions, logger zerolog.Logger) ScoringService {
	if opts.FairnessThreshold <= 0 {
		opts.FairnessThreshold = 10.0
	}
	if opts.ReferenceScore <= 0 || opts.ReferenceScore > 100 {
		opts.ReferenceScore = 80.0
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	return &scoringService{
		configs: configs,
		cache:   cache,
		opts:    opts,
		logger:  logger.With().Str("component", "scoring_service").Logger(),
		now:     time.Now,
	}
}

func (s *scoringService) SkillConfiguration(slug string) (models.SkillConfiguration, error) {
	area, err := skills.Parse(slug)
	if err != nil {
		return models.SkillConfiguration{}, fmt.Errorf("%w: %q", ErrUnknownSkill, slug)
	}

	cfg, ok := s.configs[area]
	if !ok {
		return models.SkillConfiguration{}, fmt.Errorf("%w: %q", ErrUnknownSkill, slug)
	}
	return cfg, nil
}

func (s *scoringService) ValidateSkillArea(slug string) bool {
	_, err := s.SkillConfiguration(slug)
	return err == nil
}

// ComputePoints applies the weighted conversion with a soft cap: points grow
// linearly up to the cap, then at the over-cap boost rate beyond it. The two
// branches meet exactly at the cap, so the curve is continuous and
// non-decreasing in the raw score.
func (s *scoringService) ComputePoints(rawScore float64, cfg models.SkillConfiguration, weightKey string) (float64, error) {
	if rawScore < 0 || rawScore > 100 {
		return 0, fmt.Errorf("%w: %.2f", ErrRawScoreOutOfRange, rawScore)
	}

	if weightKey == "" {
		weightKey = DefaultWeightKey
	}
	weight, ok := cfg.Weights[weightKey]
	if !ok {
		return 0, fmt.Errorf("%w: %q for skill %s", ErrUnknownWeightKey, weightKey, cfg.SkillSlug)
	}

	weighted := rawScore * cfg.BaseMultiplier * weight
	if weighted <= cfg.Cap {
		return weighted, nil
	}
	return cfg.Cap + (weighted-cfg.Cap)*cfg.OverCapBoost, nil
}

func (s *scoringService) ComputePointsForSkill(slug string, rawScore float64, weightKey string) (float64, error) {
	cfg, err := s.SkillConfiguration(slug)
	if err != nil {
		return 0, err
	}
	return s.ComputePoints(rawScore, cfg, weightKey)
}

func (s *scoringService) ListConfigurations() []models.SkillConfiguration {
	configs := make([]models.SkillConfiguration, 0, len(s.configs))
	for _, area := range skills.All() {
		if cfg, ok := s.configs[area]; ok {
			configs = append(configs, cfg)
		}
	}
	return configs
}

// AnalyzeFairness compares the expected points every skill area yields for the
// same reference raw score and flags the configuration when the spread between
// the best and worst outcome exceeds the threshold.
func (s *scoringService) AnalyzeFairness(ctx context.Context) (dto.FairnessReport, error) {
	cacheKey := fmt.Sprintf("scoring:fairness:%.1f", s.opts.ReferenceScore)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var report dto.FairnessReport
			if unmarshalErr := json.Unmarshal([]byte(cached), &report); unmarshalErr == nil {
				report.CacheHit = true
				return report, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read fairness cache")
		}
	}

	expectations := make([]dto.SkillExpectation, 0, len(s.configs))
	for _, area := range skills.All() {
		cfg, ok := s.configs[area]
		if !ok {
			return dto.FairnessReport{}, fmt.Errorf("%w: %q", ErrUnknownSkill, area)
		}
		points, err := s.ComputePoints(s.opts.ReferenceScore, cfg, DefaultWeightKey)
		if err != nil {
			return dto.FairnessReport{}, err
		}
		expectations = append(expectations, dto.SkillExpectation{
			SkillSlug:      area.String(),
			SkillLabel:     area.Label(),
			ExpectedPoints: points,
		})
	}

	report := s.buildFairnessReport(expectations)

	if s.cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.opts.CacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store fairness cache")
			}
		}
	}

	return report, nil
}

func (s *scoringService) buildFairnessReport(expectations []dto.SkillExpectation) dto.FairnessReport {
	report := dto.FairnessReport{
		ReferenceScore: s.opts.ReferenceScore,
		Threshold:      s.opts.FairnessThreshold,
		Expectations:   expectations,
		GeneratedAt:    s.now().UTC(),
	}

	if len(expectations) == 0 {
		report.IsFair = true
		return report
	}

	lowest := expectations[0]
	highest := expectations[0]
	for _, expectation := range expectations[1:] {
		if expectation.ExpectedPoints < lowest.ExpectedPoints {
			lowest = expectation
		}
		if expectation.ExpectedPoints > highest.ExpectedPoints {
			highest = expectation
		}
	}

	if lowest.ExpectedPoints > 0 {
		report.VariancePercentage = (highest.ExpectedPoints - lowest.ExpectedPoints) / lowest.ExpectedPoints * 100
	}
	report.IsFair = report.VariancePercentage <= s.opts.FairnessThreshold

	if !report.IsFair {
		midpoint := (highest.ExpectedPoints + lowest.ExpectedPoints) / 2
		sorted := make([]dto.SkillExpectation, len(expectations))
		copy(sorted, expectations)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ExpectedPoints < sorted[j].ExpectedPoints })

		for _, expectation := range sorted {
			delta := (midpoint - expectation.ExpectedPoints) / expectation.ExpectedPoints * 100
			if delta > 1 {
				report.Recommendations = append(report.Recommendations,
					fmt.Sprintf("raise %s multipliers by ~%.1f%% to reach the midpoint of %.1f points", expectation.SkillLabel, delta, midpoint))
			} else if delta < -1 {
				report.Recommendations = append(report.Recommendations,
					fmt.Sprintf("lower %s multipliers by ~%.1f%% to reach the midpoint of %.1f points", expectation.SkillLabel, -delta, midpoint))
			}
		}
	}

	return report
}
