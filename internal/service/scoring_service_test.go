package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/skills"
)

func testSkillConfigs() map[skills.Area]models.SkillConfiguration {
	return map[skills.Area]models.SkillConfiguration{
		skills.WebDevelopment: {
			SkillSlug:      skills.WebDevelopment,
			BaseMultiplier: 1.3,
			Cap:            2400,
			OverCapBoost:   0.25,
			Weights:        map[string]float64{"skill": 1.3, "project": 1.5},
		},
		skills.DataScience: {
			SkillSlug:      skills.DataScience,
			BaseMultiplier: 1.35,
			Cap:            2400,
			OverCapBoost:   0.25,
			Weights:        map[string]float64{"skill": 1.25, "project": 1.45},
		},
		skills.UIUXDesign: {
			SkillSlug:      skills.UIUXDesign,
			BaseMultiplier: 1.25,
			Cap:            2400,
			OverCapBoost:   0.25,
			Weights:        map[string]float64{"skill": 1.3, "project": 1.4},
		},
		skills.DigitalMarketing: {
			SkillSlug:      skills.DigitalMarketing,
			BaseMultiplier: 1.3,
			Cap:            2400,
			OverCapBoost:   0.25,
			Weights:        map[string]float64{"skill": 1.25, "project": 1.35},
		},
	}
}

func newTestScoringService(cache *redis.Client, opts ScoringOptions) ScoringService {
	return NewScoringService(testSkillConfigs(), cache, opts, zerolog.Nop())
}

func TestComputePointsWeightedConversion(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})

	points, err := svc.ComputePointsForSkill("web_development", 100, "skill")
	require.NoError(t, err)
	require.InDelta(t, 169.0, points, 1e-9)
}

func TestComputePointsDefaultsWeightKey(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})

	explicit, err := svc.ComputePointsForSkill("data_science", 80, "skill")
	require.NoError(t, err)
	defaulted, err := svc.ComputePointsForSkill("data_science", 80, "")
	require.NoError(t, err)
	require.Equal(t, explicit, defaulted)
}

func TestComputePointsRejectsOutOfRangeScore(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})

	_, err := svc.ComputePointsForSkill("web_development", -0.5, "skill")
	require.ErrorIs(t, err, ErrRawScoreOutOfRange)

	_, err = svc.ComputePointsForSkill("web_development", 100.5, "skill")
	require.ErrorIs(t, err, ErrRawScoreOutOfRange)
}

func TestComputePointsRejectsUnknownWeightKey(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})

	_, err := svc.ComputePointsForSkill("web_development", 80, "bonus_round")
	require.ErrorIs(t, err, ErrUnknownWeightKey)
}

func TestComputePointsSoftCap(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})
	cfg := models.SkillConfiguration{
		SkillSlug:      skills.WebDevelopment,
		BaseMultiplier: 2.0,
		Cap:            100,
		OverCapBoost:   0.25,
		Weights:        map[string]float64{"skill": 1.0},
	}

	// Exactly at the cap: the boost branch contributes nothing.
	points, err := svc.ComputePoints(50, cfg, "skill")
	require.NoError(t, err)
	require.InDelta(t, 100.0, points, 1e-9)

	// Past the cap the excess earns the boosted rate: 100 + 60*0.25.
	points, err = svc.ComputePoints(80, cfg, "skill")
	require.NoError(t, err)
	require.InDelta(t, 115.0, points, 1e-9)
}

func TestComputePointsContinuousAtCap(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})
	cfg := models.SkillConfiguration{
		SkillSlug:      skills.WebDevelopment,
		BaseMultiplier: 2.0,
		Cap:            100,
		OverCapBoost:   0.25,
		Weights:        map[string]float64{"skill": 1.0},
	}

	below, err := svc.ComputePoints(49.9999, cfg, "skill")
	require.NoError(t, err)
	above, err := svc.ComputePoints(50.0001, cfg, "skill")
	require.NoError(t, err)
	require.InDelta(t, below, above, 1e-2)
}

func TestComputePointsMonotone(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})
	cfg := models.SkillConfiguration{
		SkillSlug:      skills.WebDevelopment,
		BaseMultiplier: 2.0,
		Cap:            120,
		OverCapBoost:   0.3,
		Weights:        map[string]float64{"skill": 1.1},
	}

	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(0, 100).Draw(t, "a")
		b := rapid.Float64Range(0, 100).Draw(t, "b")
		if a > b {
			a, b = b, a
		}

		lower, err := svc.ComputePoints(a, cfg, "skill")
		require.NoError(t, err)
		upper, err := svc.ComputePoints(b, cfg, "skill")
		require.NoError(t, err)
		require.LessOrEqual(t, lower, upper)
	})
}

func TestSkillConfigurationUnknownSlug(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})

	_, err := svc.SkillConfiguration("underwater_basket_weaving")
	require.ErrorIs(t, err, ErrUnknownSkill)

	_, err = svc.ComputePointsForSkill("underwater_basket_weaving", 80, "skill")
	require.ErrorIs(t, err, ErrUnknownSkill)
}

func TestValidateSkillArea(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})

	require.True(t, svc.ValidateSkillArea("web_development"))
	require.True(t, svc.ValidateSkillArea("  Data_Science  "))
	require.False(t, svc.ValidateSkillArea("quantum_cooking"))
}

func TestListConfigurationsStableOrder(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{})

	configs := svc.ListConfigurations()
	require.Len(t, configs, 4)
	require.Equal(t, skills.WebDevelopment, configs[0].SkillSlug)
	require.Equal(t, skills.DataScience, configs[1].SkillSlug)
	require.Equal(t, skills.UIUXDesign, configs[2].SkillSlug)
	require.Equal(t, skills.DigitalMarketing, configs[3].SkillSlug)
}

func TestAnalyzeFairnessBalancedConfiguration(t *testing.T) {
	svc := newTestScoringService(nil, ScoringOptions{FairnessThreshold: 10, ReferenceScore: 80})

	report, err := svc.AnalyzeFairness(context.Background())
	require.NoError(t, err)
	require.True(t, report.IsFair)
	require.LessOrEqual(t, report.VariancePercentage, 10.0)
	require.Len(t, report.Expectations, 4)
	require.Empty(t, report.Recommendations)
	require.False(t, report.CacheHit)
}

func TestAnalyzeFairnessFlagsImbalance(t *testing.T) {
	configs := testSkillConfigs()
	skewed := configs[skills.DigitalMarketing]
	skewed.BaseMultiplier = 0.6
	configs[skills.DigitalMarketing] = skewed
	svc := NewScoringService(configs, nil, ScoringOptions{FairnessThreshold: 10, ReferenceScore: 80}, zerolog.Nop())

	report, err := svc.AnalyzeFairness(context.Background())
	require.NoError(t, err)
	require.False(t, report.IsFair)
	require.Greater(t, report.VariancePercentage, 10.0)
	require.NotEmpty(t, report.Recommendations)
}

func TestAnalyzeFairnessCachesReport(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	svc := newTestScoringService(redisClient, ScoringOptions{FairnessThreshold: 10, ReferenceScore: 80, CacheTTL: time.Minute})

	first, err := svc.AnalyzeFairness(context.Background())
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := svc.AnalyzeFairness(context.Background())
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.VariancePercentage, second.VariancePercentage)

	// Expired cache entries force a recomputation.
	server.FastForward(2 * time.Minute)
	third, err := svc.AnalyzeFairness(context.Background())
	require.NoError(t, err)
	require.False(t, third.CacheHit)
}
