package forge

import "context"

// Seed carries the parameters a replacement task inherits from the task it
// replaces. The generator fills in fresh content around them.
type Seed struct {
	SkillCategory            string
	SkillLabel               string
	TaskType                 string
	BasePoints               int
	MaxPoints                int
	EstimatedDurationMinutes int
}

// Draft is the generated task content. Identity, timestamps, and lifecycle
// fields are assigned by the caller, never by the generator.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Generator describes a source of fresh task content.
type Generator interface {
	Generate(ctx context.Context, seed Seed) (Draft, error)
}
