package dto

import (
	"time"

	"github.com/skillpulse/skillpulse-api/internal/models"
)

// SkillConfigurationResponse exposes the fairness parameters for one skill.
type SkillConfigurationResponse struct {
	SkillSlug       string             `json:"skill_slug"`
	SkillLabel      string             `json:"skill_label"`
	BaseMultiplier  float64            `json:"base_multiplier"`
	BonusMultiplier float64            `json:"bonus_multiplier"`
	Cap             float64            `json:"cap"`
	OverCapBoost    float64            `json:"over_cap_boost"`
	Weights         map[string]float64 `json:"weights"`
}

// SkillExpectation is the expected point outcome for one skill at the
// fairness reference score.
type SkillExpectation struct {
	SkillSlug      string  `json:"skill_slug"`
	SkillLabel     string  `json:"skill_label"`
	ExpectedPoints float64 `json:"expected_points"`
}

// FairnessReport compares expected outcomes across all skill configurations.
type FairnessReport struct {
	ReferenceScore     float64            `json:"reference_score"`
	Threshold          float64            `json:"threshold"`
	Expectations       []SkillExpectation `json:"expectations"`
	VariancePercentage float64            `json:"variance_percentage"`
	IsFair             bool               `json:"is_fair"`
	Recommendations    []string           `json:"recommendations,omitempty"`
	GeneratedAt        time.Time          `json:"generated_at"`
	CacheHit           bool               `json:"cache_hit"`
}

// NewSkillConfigurationResponse builds the DTO from the model.
func NewSkillConfigurationResponse(cfg models.SkillConfiguration) SkillConfigurationResponse {
	return SkillConfigurationResponse{
		SkillSlug:       cfg.SkillSlug.String(),
		SkillLabel:      cfg.SkillSlug.Label(),
		BaseMultiplier:  cfg.BaseMultiplier,
		BonusMultiplier: cfg.BonusMultiplier,
		Cap:             cfg.Cap,
		OverCapBoost:    cfg.OverCapBoost,
		Weights:         cfg.Weights,
	}
}

// NewSkillConfigurationResponses builds DTOs for a configuration set.
func NewSkillConfigurationResponses(configs []models.SkillConfiguration) []SkillConfigurationResponse {
	responses := make([]SkillConfigurationResponse, 0, len(configs))
	for _, cfg := range configs {
		responses = append(responses, NewSkillConfigurationResponse(cfg))
	}
	return responses
}
