package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	forgeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skillpulse",
		Subsystem: "forge",
		Name:      "generation_duration_seconds",
		Help:      "Duration of task generation requests",
	}, []string{"model"})

	forgeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillpulse",
		Subsystem: "forge",
		Name:      "generation_failures_total",
		Help:      "Number of task generation failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI task generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGenerator implements Generator against the OpenAI chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a new generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	tracer := otel.Tracer("github.com/skillpulse/skillpulse-api/pkg/forge/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGenerator{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Generate asks the model for fresh task content and parses the response.
func (g *OpenAIGenerator) Generate(parent context.Context, seed Seed) (Draft, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate_task", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("skill", seed.SkillCategory),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: generatorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildSeedPrompt(seed),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	forgeDuration.WithLabelValues(g.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		forgeFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Draft{}, fmt.Errorf("openai generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		forgeFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Draft{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	draft, err := parseDraftResponse(content)
	if err != nil {
		forgeFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Draft{}, err
	}

	return draft, nil
}

func generatorSystemPrompt() string {
	return "You are a curriculum designer for a skill-building platform. Respond with a JSON object containing title and descrip" +
		"tion for one practice exercise. The description must state the goal, the deliverable, and acceptance criteria."
}

func buildSeedPrompt(seed Seed) string {
	builder := strings.Builder{}
	builder.WriteString("# Skill Area\n")
	builder.WriteString(seed.SkillLabel)
	builder.WriteString("\n\n## Task Type\n")
	builder.WriteString(seed.TaskType)
	builder.WriteString(fmt.Sprintf("\n\n## Point Range\n%d-%d", seed.BasePoints, seed.MaxPoints))
	builder.WriteString(fmt.Sprintf("\n\n## Estimated Duration\n%d minutes", seed.EstimatedDurationMinutes))
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseDraftResponse(content string) (Draft, error) {
	var draft Draft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return Draft{}, fmt.Errorf("parse draft json: %w", err)
	}

	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	if draft.Title == "" || draft.Description == "" {
		return Draft{}, fmt.Errorf("draft is missing title or description")
	}

	return draft, nil
}
