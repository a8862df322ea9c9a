package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/service"
	"github.com/skillpulse/skillpulse-api/internal/utils"
)

// ScoringHandler exposes scoring configuration and fairness endpoints.
type ScoringHandler struct {
	service service.ScoringService
	logger  zerolog.Logger
}

// NewScoringHandler builds a new scoring handler.
func NewScoringHandler(service service.ScoringService, logger zerolog.Logger) *ScoringHandler {
	return &ScoringHandler{
		service: service,
		logger:  logger.With().Str("component", "scoring_handler").Logger(),
	}
}

// Register wires the handler routes into the router group.
func (h *ScoringHandler) Register(router fiber.Router) {
	router.Get("/skills", h.skills)
	router.Get("/fairness", h.fairness)
}

func (h *ScoringHandler) skills(c *fiber.Ctx) error {
	configs := dto.NewSkillConfigurationResponses(h.service.ListConfigurations())
	return utils.SendSuccess(c, "skill configurations retrieved", configs)
}

func (h *ScoringHandler) fairness(c *fiber.Ctx) error {
	report, err := h.service.AnalyzeFairness(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to analyze fairness")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to analyze fairness")
	}

	return utils.SendSuccess(c, "fairness report generated", report)
}
