// handlers/winner_routes.go
package handlers

import (
	"log"
	"strconv"

	"referral-rewards-system/middleware"
	"referral-rewards-system/models"
	"referral-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWinnerRoutes(app *fiber.App, winnerService *services.WinnerService, gatewayToken string) {
	app.Get("/winners", listWinners(winnerService, true))

	// 🔐 Admin: gateway token required
	admin := app.Group("/admin", middleware.GatewayAuthMiddleware(gatewayToken), middleware.OperatorContextMiddleware())

	admin.Get("/winners", listWinners(winnerService, false))

	// Manual trigger, same idempotent path the scheduler uses.
	admin.Post("/winners/run", func(c *fiber.Ctx) error {
		period := models.PeriodType(c.Query("period", "all"))
		log.Printf("[Winners] Manual %s run requested by %s", period, middleware.Operator(c))

		if period == "all" {
			results, err := winnerService.ProcessAll(c.UserContext())
			if err != nil {
				// One period failing does not undo the other; report both.
				log.Printf("[Winners] ❌ Manual run finished with errors: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"results": results,
					"error":   "winner selection failed for at least one period",
				})
			}
			return c.JSON(fiber.Map{"results": results})
		}
		if !period.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "period must be daily, weekly or all"})
		}

		result, err := winnerService.SelectAndProcess(c.UserContext(), period)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})
}

// listWinners serves winner history. The public variant strips each winner down
// to name, picture and prize.
func listWinners(winnerService *services.WinnerService, public bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		period := models.PeriodType(c.Query("type"))

		winners, total, err := winnerService.ListWinners(c.UserContext(), period, page, size)
		if err != nil {
			return respondError(c, err)
		}
		var body any = winners
		if public {
			body = services.PublicWinners(winners)
		}
		return c.JSON(fiber.Map{
			"winners": body,
			"total":   total,
			"page":    page,
			"size":    size,
		})
	}
}
