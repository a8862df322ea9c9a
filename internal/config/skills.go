package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/skills"
)

// skillsSchema constrains the shape of the skills configuration file before the
// struct-level checks run, so a malformed file fails with a precise message.
const skillsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["skills"],
  "properties": {
    "skills": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["skill_slug", "base_multiplier", "bonus_multiplier", "cap", "over_cap_boost", "weights"],
        "properties": {
          "skill_slug": {"type": "string", "minLength": 1},
          "base_multiplier": {"type": "number", "exclusiveMinimum": 0},
          "bonus_multiplier": {"type": "number", "exclusiveMinimum": 0},
          "cap": {"type": "number", "exclusiveMinimum": 0},
          "over_cap_boost": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1},
          "weights": {
            "type": "object",
            "minProperties": 1,
            "additionalProperties": {"type": "number", "exclusiveMinimum": 0}
          }
        }
      }
    }
  }
}`

type skillsFile struct {
	Skills []models.SkillConfiguration `json:"skills"`
}

// LoadSkillConfigurations reads, schema-checks, and validates the per-skill
// fairness parameters. Any problem is fatal: the service must not start with a
// partial or malformed scoring configuration.
func LoadSkillConfigurations(path string, validate *validator.Validate) (map[skills.Area]models.SkillConfiguration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills configuration: %w", err)
	}

	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("skills configuration schema: %w", err)
	}

	var file skillsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse skills configuration: %w", err)
	}

	configs := make(map[skills.Area]models.SkillConfiguration, len(file.Skills))
	for _, cfg := range file.Skills {
		area, err := skills.Parse(cfg.SkillSlug.String())
		if err != nil {
			return nil, fmt.Errorf("skills configuration: %w", err)
		}
		cfg.SkillSlug = area

		if err := validate.Struct(cfg); err != nil {
			return nil, fmt.Errorf("skills configuration for %s: %w", area, err)
		}

		if _, exists := configs[area]; exists {
			return nil, fmt.Errorf("skills configuration: duplicate entry for %s", area)
		}
		configs[area] = cfg
	}

	var missing []string
	for _, area := range skills.All() {
		if _, ok := configs[area]; !ok {
			missing = append(missing, area.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("skills configuration: missing entries for %v", missing)
	}

	return configs, nil
}

func validateAgainstSchema(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("skills.schema.json", bytes.NewReader([]byte(skillsSchema))); err != nil {
		return err
	}

	schema, err := compiler.Compile("skills.schema.json")
	if err != nil {
		return err
	}

	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return err
	}

	return schema.Validate(document)
}
