package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/repository"
	"github.com/skillpulse/skillpulse-api/internal/service"
	"github.com/skillpulse/skillpulse-api/internal/utils"
)

// RotationHandler exposes administrative rotation endpoints.
type RotationHandler struct {
	rotation service.RotationService
	tasks    repository.TaskRepository
	logger   zerolog.Logger
}

// NewRotationHandler builds a new rotation handler.
func NewRotationHandler(rotation service.RotationService, tasks repository.TaskRepository, logger zerolog.Logger) *RotationHandler {
	return &RotationHandler{
		rotation: rotation,
		tasks:    tasks,
		logger:   logger.With().Str("component", "rotation_handler").Logger(),
	}
}

// Register wires the handler routes into the router group.
func (h *RotationHandler) Register(router fiber.Router) {
	router.Get("/stats", h.stats)
	router.Post("/sweep", h.sweep)
}

func (h *RotationHandler) stats(c *fiber.Ctx) error {
	snapshot, err := h.tasks.ListAll(c.Context(), false)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load task snapshot")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute rotation stats")
	}

	response := dto.RotationStatsResponse{
		Stats:       h.rotation.Stats(snapshot),
		GeneratedAt: time.Now().UTC(),
	}

	return utils.SendSuccess(c, "rotation stats computed", response)
}

func (h *RotationHandler) sweep(c *fiber.Ctx) error {
	result, err := h.rotation.Sweep(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrTaskStoreUnavailable) {
			return utils.SendError(c, fiber.StatusServiceUnavailable, "task store unavailable")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("manual rotation sweep failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "rotation sweep failed")
	}

	response := dto.SweepResponse{
		Evaluated:    result.Evaluated,
		Rotated:      result.Rotated,
		Replacements: result.Replacements,
		DurationMs:   result.Duration.Milliseconds(),
	}

	return utils.SendSuccess(c, "rotation sweep completed", response)
}
