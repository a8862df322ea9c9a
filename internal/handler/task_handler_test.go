package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skillpulse/skillpulse-api/internal/config"
	"github.com/skillpulse/skillpulse-api/internal/dto"
	"github.com/skillpulse/skillpulse-api/internal/handler"
	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/repository"
	"github.com/skillpulse/skillpulse-api/internal/router"
	"github.com/skillpulse/skillpulse-api/internal/service"
	"github.com/skillpulse/skillpulse-api/internal/skills"
	"github.com/skillpulse/skillpulse-api/pkg/forge"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Task{}, &models.Submission{}))
	return db
}

func testRotationPolicy() config.RotationPolicy {
	return config.RotationPolicy{
		MaxAgeDays:             14,
		MaxCompletions:         50,
		ApproachingDays:        3,
		ApproachingCompletions: 10,
	}
}

func stubAuth(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		if role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	}
}

func decodeResponse[T any](t *testing.T, resp *http.Response) (T, string) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))

	var data T
	if len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
	}
	return data, envelope.Message
}

func setupTaskApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := openTestDB(t)
	logger := zerolog.New(io.Discard)

	taskRepo := repository.NewTaskRepository(db)
	rotation, err := service.NewRotationService(taskRepo, forge.NewTemplateGenerator(1), nil, testRotationPolicy(), logger)
	require.NoError(t, err)
	taskService := service.NewTaskService(taskRepo, rotation, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		TaskHandler:   handler.NewTaskHandler(taskService, logger),
		JWTMiddleware: stubAuth(1, ""),
	})

	return app, db
}

func TestTaskHandler_ListActiveTasks(t *testing.T) {
	app, db := setupTaskApp(t)

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Task{
		Title:         "Build a portfolio page",
		Description:   "Single responsive page",
		SkillCategory: skills.WebDevelopment,
		TaskType:      models.TaskTypePractice,
		IsActive:      true,
		CreatedAt:     now.AddDate(0, 0, -2),
	}).Error)
	require.NoError(t, db.Create(&models.Task{
		Title:          "Retired drill",
		Description:    "No longer served",
		SkillCategory:  skills.WebDevelopment,
		TaskType:       models.TaskTypePractice,
		IsActive:       false,
		RotationReason: models.RotationReasonManual,
		CreatedAt:      now.AddDate(0, 0, -30),
	}).Error)

	req := httptest.NewRequest("GET", "/api/v2/tasks", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	list, _ := decodeResponse[dto.TaskListResponse](t, resp)
	require.Len(t, list.Items, 1)
	require.Equal(t, "Build a portfolio page", list.Items[0].Title)
	require.Equal(t, 1, list.Pagination.TotalItems)
}

func TestTaskHandler_ListRejectsUnknownSkill(t *testing.T) {
	app, _ := setupTaskApp(t)

	req := httptest.NewRequest("GET", "/api/v2/tasks?skill=quantum_cooking", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTaskHandler_GetIncludesRotationOutlook(t *testing.T) {
	app, db := setupTaskApp(t)

	now := time.Now().UTC()
	task := models.Task{
		Title:         "Design a checkout flow",
		Description:   "Wireframe to prototype",
		SkillCategory: skills.UIUXDesign,
		TaskType:      models.TaskTypeMiniProject,
		IsActive:      true,
		CreatedAt:     now.AddDate(0, 0, -12),
	}
	require.NoError(t, db.Create(&task).Error)

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/v2/tasks/%d", task.ID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	detail, _ := decodeResponse[dto.TaskDetailResponse](t, resp)
	require.Equal(t, task.ID, detail.ID)
	require.True(t, detail.Rotation.Approaching)
	require.Equal(t, 2, detail.Rotation.DaysLeft)
}

func TestTaskHandler_GetNotFound(t *testing.T) {
	app, _ := setupTaskApp(t)

	req := httptest.NewRequest("GET", "/api/v2/tasks/9999", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
