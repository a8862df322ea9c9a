package forge

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

var practiceAngles = []string{
	"from scratch",
	"under a time box",
	"with accessibility in mind",
	"optimised for readability",
	"with tests included",
}

var templatesBySkill = map[string][]string{
	"web_development": {
		"Build a responsive pricing card component %s",
		"Implement a client-side form validator %s",
		"Create a paginated list view backed by a mock API %s",
	},
	"data_science": {
		"Clean and summarise a messy CSV dataset %s",
		"Build an exploratory analysis of a public dataset %s",
		"Train and evaluate a simple classifier %s",
	},
	"ui_ux_design": {
		"Design a mobile onboarding flow %s",
		"Redesign a settings screen for clarity %s",
		"Produce a component style guide %s",
	},
	"digital_marketing": {
		"Draft a three-email nurture sequence %s",
		"Plan a one-week social campaign %s",
		"Write landing page copy for a product launch %s",
	},
}

// TemplateGenerator produces task content from a fixed template bank. It is
// the default generator in environments without an AI provider and the one
// used in tests.
type TemplateGenerator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewTemplateGenerator builds a template generator seeded for variety.
func NewTemplateGenerator(seed int64) *TemplateGenerator {
	return &TemplateGenerator{rand: rand.New(rand.NewSource(seed))}
}

// Generate assembles a draft from the template bank for the seed's skill area.
func (g *TemplateGenerator) Generate(_ context.Context, seed Seed) (Draft, error) {
	templates, ok := templatesBySkill[seed.SkillCategory]
	if !ok {
		return Draft{}, fmt.Errorf("no templates for skill area %q", seed.SkillCategory)
	}

	g.mu.Lock()
	template := templates[g.rand.Intn(len(templates))]
	angle := practiceAngles[g.rand.Intn(len(practiceAngles))]
	g.mu.Unlock()

	title := fmt.Sprintf(template, angle)
	description := strings.Join([]string{
		fmt.Sprintf("%s exercise for %s.", taskTypeLabel(seed.TaskType), seed.SkillLabel),
		fmt.Sprintf("Goal: %s.", strings.ToLower(string(title[0]))+title[1:]),
		fmt.Sprintf("Estimated effort: %d minutes. Points: %d-%d.", seed.EstimatedDurationMinutes, seed.BasePoints, seed.MaxPoints),
		"Deliverable: a working solution plus a short note on the decisions you made.",
	}, "\n")

	return Draft{Title: title, Description: description}, nil
}

func taskTypeLabel(taskType string) string {
	if taskType == "mini_project" {
		return "Mini project"
	}
	return "Practice"
}
