package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/mansoorceksport/workoutgen/internal/middleware"
	"github.com/sirupsen/logrus"
)

type ProfileHandler struct {
	profileRepo domain.ProfileRepository
}

func NewProfileHandler(profileRepo domain.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo}
}

// Get handles GET /v1/me/profile. A user who never saved a profile gets an
// empty one rather than a 404.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	profile, err := h.profileRepo.GetByID(c.UserContext(), userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile = &domain.Profile{ID: userID}
	} else if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("failed to load profile")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}
	return c.JSON(profile)
}

// Update handles PUT /v1/me/profile
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req struct {
		FullName string `json:"full_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	fullName, err := domain.NormalizeFullName(req.FullName)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	profile := &domain.Profile{ID: userID, FullName: fullName}
	if err := h.profileRepo.Upsert(c.UserContext(), profile); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("failed to save profile")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	return c.JSON(profile)
}
