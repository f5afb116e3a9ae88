// handlers/errors.go
package handlers

import (
	"errors"
	"log"

	"referral-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service sentinels to HTTP statuses. Anything unrecognised is a 500
// and is logged, not echoed.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrAlreadyReferred),
		errors.Is(err, services.ErrUnknownPeriod):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidReferralCode),
		errors.Is(err, services.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken):
		status = fiber.StatusConflict
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
