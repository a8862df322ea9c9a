package handler_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/skillpulse/skillpulse-api/internal/config"
	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/handler"
	"github.com/skillpulse/skillpulse-api/internal/router"
	"github.com/skillpulse/skillpulse-api/internal/service"
)

func setupScoringApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)
	scoring := service.NewScoringService(handlerSkillConfigs(), nil, service.ScoringOptions{
		FairnessThreshold: 10,
		ReferenceScore:    80,
	}, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		ScoringHandler: handler.NewScoringHandler(scoring, logger),
		JWTMiddleware:  stubAuth(1, ""),
	})

	return app
}

func TestScoringHandler_ListSkillConfigurations(t *testing.T) {
	app := setupScoringApp(t)

	req := httptest.NewRequest("GET", "/api/v2/scoring/skills", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	configs, _ := decodeResponse[[]dto.SkillConfigurationResponse](t, resp)
	require.Len(t, configs, 4)
	require.Equal(t, "web_development", configs[0].SkillSlug)
	require.Equal(t, "Web Development", configs[0].SkillLabel)
}

func TestScoringHandler_FairnessReport(t *testing.T) {
	app := setupScoringApp(t)

	req := httptest.NewRequest("GET", "/api/v2/scoring/fairness", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	report, _ := decodeResponse[dto.FairnessReport](t, resp)
	// All four areas share identical multipliers here, so the spread is zero.
	require.True(t, report.IsFair)
	require.Zero(t, report.VariancePercentage)
	require.Len(t, report.Expectations, 4)
}
