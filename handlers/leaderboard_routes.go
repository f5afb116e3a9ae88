// handlers/leaderboard_routes.go
package handlers

import (
	"strconv"

	"referral-rewards-system/models"
	"referral-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService) {
	// All-time top referrers by cached count.
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "7"))
		entries, err := leaderboardService.AllTime(c.UserContext(), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(entries)
	})

	windowed := func(period models.PeriodType) fiber.Handler {
		return func(c *fiber.Ctx) error {
			w, entries, err := leaderboardService.Current(c.UserContext(), period)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{
				"period":  period,
				"start":   w.Start,
				"end":     w.End,
				"entries": entries,
			})
		}
	}
	app.Get("/leaderboard/daily", windowed(models.PeriodDaily))
	app.Get("/leaderboard/weekly", windowed(models.PeriodWeekly))
}
