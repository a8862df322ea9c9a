package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/service"
	"github.com/skillpulse/skillpulse-api/internal/skills"
	"github.com/skillpulse/skillpulse-api/internal/utils"
)

// TaskHandler exposes task pool HTTP endpoints.
type TaskHandler struct {
	service service.TaskService
	logger  zerolog.Logger
}

// NewTaskHandler builds a new task handler.
func NewTaskHandler(service service.TaskService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger.With().Str("component", "task_handler").Logger(),
	}
}

// Register wires the handler routes into the router group.
func (h *TaskHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *TaskHandler) list(c *fiber.Ctx) error {
	filter := dto.TaskFilter{
		SkillCategory: c.Query("skill"),
		TaskType:      c.Query("task_type"),
		ActiveOnly:    c.QueryBool("active_only", true),
	}

	if page, err := parseQueryInt(c, "page"); err == nil {
		filter.Page = page
	}
	if pageSize, err := parseQueryInt(c, "page_size"); err == nil {
		filter.PageSize = pageSize
	}

	tasks, err := h.service.List(c.Context(), filter)
	if err != nil {
		if errors.Is(err, skills.ErrUnknownArea) {
			return utils.SendError(c, fiber.StatusBadRequest, "unknown skill area")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list tasks")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve tasks")
	}

	return utils.SendSuccess(c, "tasks retrieved", tasks)
}

func (h *TaskHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "task not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("task_id", id).Msg("failed to get task")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve task")
	}

	return utils.SendSuccess(c, "task retrieved", task)
}
