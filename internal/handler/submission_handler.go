package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/service"
	"github.com/skillpulse/skillpulse-api/internal/utils"
)

// SubmissionHandler exposes submission HTTP endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a new submission handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires the handler routes into the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/:id", h.get)
	router.Post("/:id/score", h.score)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Submit(c.Context(), userID, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTaskNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "task not found")
		case errors.Is(err, service.ErrSubmissionTaskInactive):
			return utils.SendError(c, fiber.StatusConflict, "task is no longer accepting submissions")
		case errors.Is(err, service.ErrCorpusUnavailable):
			// Undetermined, not clean: the caller decides how to proceed.
			return utils.SendError(c, fiber.StatusServiceUnavailable, "integrity check unavailable, submission not accepted")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to accept submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to accept submission")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission accepted", response)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("submission_id", id).Msg("failed to get submission")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve submission")
	}

	return utils.SendSuccess(c, "submission retrieved", response)
}

func (h *SubmissionHandler) score(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Score(c.Context(), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		case errors.Is(err, service.ErrSubmissionFlagged):
			return utils.SendError(c, fiber.StatusConflict, "submission is flagged for integrity review")
		case errors.Is(err, service.ErrUnknownSkill), errors.Is(err, service.ErrUnknownWeightKey):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "no scoring configuration for submission skill")
		case errors.Is(err, service.ErrRawScoreOutOfRange):
			return utils.SendError(c, fiber.StatusBadRequest, "raw score must be between 0 and 100")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("submission_id", id).Msg("failed to score submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to score submission")
		}
	}

	return utils.SendSuccess(c, "submission scored", response)
}
