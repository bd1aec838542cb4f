package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/sirupsen/logrus"
)

// ExerciseHandler serves the shared exercise catalog. The catalog is only
// written by generation, so there are no mutating routes.
type ExerciseHandler struct {
	exerciseRepo domain.ExerciseRepository
}

func NewExerciseHandler(exerciseRepo domain.ExerciseRepository) *ExerciseHandler {
	return &ExerciseHandler{exerciseRepo: exerciseRepo}
}

// List handles GET /v1/exercises?name=&muscles=a,b
func (h *ExerciseHandler) List(c *fiber.Ctx) error {
	filter := domain.ExerciseFilter{
		Name:    c.Query("name"),
		Muscles: splitList(c.Query("muscles")),
	}

	exercises, err := h.exerciseRepo.List(c.UserContext(), filter)
	if err != nil {
		logrus.WithError(err).Error("failed to list exercises")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load exercises"})
	}
	if exercises == nil {
		exercises = []*domain.Exercise{}
	}
	return c.JSON(fiber.Map{"exercises": exercises})
}

// Get handles GET /v1/exercises/:id
func (h *ExerciseHandler) Get(c *fiber.Ctx) error {
	exercise, err := h.exerciseRepo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrExerciseNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exercise not found"})
		}
		logrus.WithError(err).Error("failed to load exercise")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load exercise"})
	}
	return c.JSON(exercise)
}
