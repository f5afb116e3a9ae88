// handlers/referral_routes.go
package handlers

import (
	"referral-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app *fiber.App, referralService *services.ReferralService) {
	// Signup, optionally with the referrer's code.
	app.Post("/users", func(c *fiber.Ctx) error {
		var in services.RegisterUserInput
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		user, err := referralService.RegisterUser(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":       "User registered successfully",
			"id":            user.ID,
			"referral_code": user.ReferralCode,
		})
	})

	app.Post("/referrals", func(c *fiber.Ctx) error {
		var body struct {
			Email        string `json:"email"`
			ReferrerCode string `json:"referrer_code"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		if _, err := referralService.ProcessReferral(c.UserContext(), body.Email, body.ReferrerCode); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Referral processed successfully"})
	})
}
