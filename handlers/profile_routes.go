// handlers/profile_routes.go
package handlers

import (
	"referral-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, profileService *services.ProfileService) {
	app.Get("/profile/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
		}

		profile, err := profileService.GetProfile(c.UserContext(), uint(id))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(profile)
	})
}
