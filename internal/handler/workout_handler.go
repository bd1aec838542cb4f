package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/mansoorceksport/workoutgen/internal/middleware"
	"github.com/sirupsen/logrus"
)

// WorkoutHandler handles HTTP requests for generated workouts
type WorkoutHandler struct {
	workoutService domain.WorkoutService
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workoutService domain.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// Generate handles POST /v1/workouts/generate
func (h *WorkoutHandler) Generate(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req domain.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.workoutService.Generate(c.UserContext(), userID, &req)
	if err != nil {
		return h.generateError(c, userID, err)
	}

	workout, err := mergeWorkout(result)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "An unexpected error occurred")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"workout": workout,
	})
}

// generateError maps pipeline failures to the client-facing messages. Details
// were already logged by the service.
func (h *WorkoutHandler) generateError(c *fiber.Ctx, userID string, err error) error {
	var rateErr *domain.RateLimitError
	var validationErr *domain.ValidationError
	var persistErr *domain.PersistenceError

	switch {
	case errors.As(err, &rateErr):
		return fail(c, fiber.StatusTooManyRequests, rateErr.Error())
	case errors.As(err, &validationErr):
		return fail(c, fiber.StatusBadRequest, validationErr.Message)
	case errors.Is(err, domain.ErrGenerationFailed):
		return fail(c, fiber.StatusInternalServerError, "Failed to generate workout")
	case errors.As(err, &persistErr):
		if persistErr.Stage == domain.StageExercises {
			return fail(c, fiber.StatusInternalServerError, "Failed to process exercises")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to save workout to database")
	default:
		logrus.WithError(err).WithField("user_id", userID).Error("unexpected generate error")
		return fail(c, fiber.StatusInternalServerError, "An unexpected error occurred")
	}
}

// mergeWorkout flattens the stored workout and the generated exercise list into
// one object, the shape clients render right after generation.
func mergeWorkout(result *domain.GenerationResult) (map[string]interface{}, error) {
	raw, err := json.Marshal(result.Workout)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]interface{})
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	exercises := result.Exercises
	if exercises == nil {
		exercises = []domain.GeneratedExercise{}
	}
	merged["exercises"] = exercises
	return merged, nil
}

// List handles GET /v1/workouts?search=&muscles=a,b&focus=x,y
func (h *WorkoutHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	filter := domain.WorkoutFilter{
		Search:  c.Query("search"),
		Muscles: splitList(c.Query("muscles")),
		Focus:   splitList(c.Query("focus")),
	}

	workouts, err := h.workoutService.List(c.UserContext(), userID, filter)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("failed to list workouts")
		return fail(c, fiber.StatusInternalServerError, "Failed to load workouts")
	}
	if workouts == nil {
		workouts = []*domain.Workout{}
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"workouts": workouts,
	})
}

// Get handles GET /v1/workouts/:id
func (h *WorkoutHandler) Get(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	detail, err := h.workoutService.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return ownershipError(c, err, "Failed to load workout")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"workout":   detail.Workout,
		"exercises": detail.Exercises,
	})
}

type renameRequest struct {
	ID   string          `json:"id"`
	Name json.RawMessage `json:"name"`
}

// Update handles PUT /v1/workouts/update. Only the name can be changed; an
// empty name clears it and the workout is shown by its creation date.
func (h *WorkoutHandler) Update(c *fiber.Ctx) error {
	var req renameRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.ID) == "" {
		return fail(c, fiber.StatusBadRequest, "Workout ID is required")
	}

	var name *string
	if req.Name != nil {
		var raw string
		// null decodes into a string without error
		if string(req.Name) == "null" {
			return fail(c, fiber.StatusBadRequest, "Name must be a string")
		}
		if err := json.Unmarshal(req.Name, &raw); err != nil {
			return fail(c, fiber.StatusBadRequest, "Name must be a string")
		}
		normalized, err := domain.NormalizeWorkoutName(raw)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		name = normalized
	}

	userID := middleware.GetUserID(c)
	if userID == "" {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	// No name field means nothing to change
	if req.Name == nil {
		detail, err := h.workoutService.Get(c.UserContext(), userID, req.ID)
		if err != nil {
			return ownershipError(c, err, "Failed to update workout")
		}
		return c.JSON(fiber.Map{"success": true, "workout": detail.Workout})
	}

	workout, err := h.workoutService.Rename(c.UserContext(), userID, req.ID, name)
	if err != nil {
		return ownershipError(c, err, "Failed to update workout")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"workout": workout,
	})
}

// Delete handles DELETE /v1/workouts/:id and DELETE /v1/workouts/delete?id=
func (h *WorkoutHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		id = c.Query("id")
	}
	if id == "" {
		return fail(c, fiber.StatusBadRequest, "Workout ID is required")
	}

	userID := middleware.GetUserID(c)
	if userID == "" {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.workoutService.Delete(c.UserContext(), userID, id); err != nil {
		return ownershipError(c, err, "Failed to delete workout")
	}

	return c.JSON(fiber.Map{"success": true})
}

// ownershipError maps the not-found and forbidden outcomes shared by get, rename
// and delete; anything else is a 500 with the given message.
func ownershipError(c *fiber.Ctx, err error, internalMsg string) error {
	switch {
	case errors.Is(err, domain.ErrWorkoutNotFound), errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Workout not found")
	case errors.Is(err, domain.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Unauthorized")
	default:
		logrus.WithError(err).WithField("path", c.Path()).Error(internalMsg)
		return fail(c, fiber.StatusInternalServerError, internalMsg)
	}
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// splitList parses comma separated query values, dropping blanks
func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
