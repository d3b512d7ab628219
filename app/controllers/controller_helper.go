package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/middleware"
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// requireOrganization returns the org placed in Locals by the API key
// middleware, or writes a 401 and returns nil.
func requireOrganization(c *fiber.Ctx) *models.Organization {
	org := middleware.OrganizationFromContext(c)
	if org == nil {
		_ = jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}
	return org
}
