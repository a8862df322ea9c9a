package models

import (
	"github.com/skillpulse/skillpulse-api/internal/skills"
)

// SkillConfiguration holds the fairness parameters governing point conversion
// for one skill area. Configurations are loaded once at startup and never
// mutated afterwards.
type SkillConfiguration struct {
	SkillSlug       skills.Area        `json:"skill_slug" validate:"required"`
	BaseMultiplier  float64            `json:"base_multiplier" validate:"required,gt=0"`
	BonusMultiplier float64            `json:"bonus_multiplier" validate:"required,gt=0"`
	Cap             float64            `json:"cap" validate:"required,gt=0"`
	OverCapBoost    float64            `json:"over_cap_boost" validate:"required,gt=0,lt=1"`
	Weights         map[string]float64 `json:"weights" validate:"required,min=1,dive,gt=0"`
}
